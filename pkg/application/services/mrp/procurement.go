package mrp

import (
	"context"
	"fmt"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// ProcurementBridge turns leftover buy-item shortages into a purchase requisition
type ProcurementBridge struct {
	numbers *services.OrderNumberFormat
}

// NewProcurementBridge creates a new procurement bridge
func NewProcurementBridge(numbers *services.OrderNumberFormat) *ProcurementBridge {
	return &ProcurementBridge{numbers: numbers}
}

// BuyShortages returns the requirements that purchasing must cover: short, without a
// recipe, and of a kind that is bought rather than produced. Producible kinds missing
// a recipe are blocking issues instead.
func BuyShortages(exp *dto.Explosion) []entities.NetRequirement {
	out := make([]entities.NetRequirement, 0)
	for _, req := range exp.Shortages() {
		if !req.HasRecipe && !req.Kind.ExpectsRecipe() {
			out = append(out, req)
		}
	}
	return out
}

// Bridge creates one URGENT requisition for the sales order, or returns nil when
// nothing needs buying. Open purchase orders are not consulted.
func (b *ProcurementBridge) Bridge(
	ctx context.Context,
	tx repositories.Tx,
	so *entities.SalesOrder,
	exp *dto.Explosion,
	requestedBy string,
) (*entities.PurchaseRequisition, error) {
	shortages := BuyShortages(exp)
	if len(shortages) == 0 {
		return nil, nil
	}

	note := fmt.Sprintf("MRP shortage for sales order %s", so.Number)
	lines := make([]entities.RequisitionLine, 0, len(shortages))
	for _, req := range shortages {
		lines = append(lines, entities.RequisitionLine{
			ItemID:   req.ItemID,
			Quantity: req.Shortage,
			Note:     note,
		})
	}

	seq, err := tx.Sequences().NextValue(ctx, b.numbers.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate requisition number: %w", err)
	}

	requisition, err := entities.NewPurchaseRequisition(
		b.numbers.Format(seq),
		so.ID,
		entities.PriorityUrgent,
		requestedBy,
		lines,
	)
	if err != nil {
		return nil, apperrors.ErrConstraintViolation("invalid purchase requisition").Wrap(err)
	}

	if err := tx.Requisitions().CreatePurchaseRequisition(ctx, requisition); err != nil {
		return nil, fmt.Errorf("failed to create purchase requisition: %w", err)
	}
	return requisition, nil
}
