package mrp

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// HierarchyBuilder materializes the work-order forest for an explosion
type HierarchyBuilder struct {
	itemRepo   repositories.ItemRepository
	recipeRepo repositories.RecipeRepository
	numbers    *services.OrderNumberFormat
	mode       ShortageMode
}

// NewHierarchyBuilder creates a new hierarchy builder
func NewHierarchyBuilder(
	itemRepo repositories.ItemRepository,
	recipeRepo repositories.RecipeRepository,
	numbers *services.OrderNumberFormat,
	mode ShortageMode,
) *HierarchyBuilder {
	if mode == "" {
		mode = AggregatedShortage
	}
	return &HierarchyBuilder{
		itemRepo:   itemRepo,
		recipeRepo: recipeRepo,
		numbers:    numbers,
		mode:       mode,
	}
}

// PlanWideStatus is the single status stamped on every work order of a run.
// It reflects overall feasibility, not the readiness of each node.
func PlanWideStatus(exp *dto.Explosion) entities.WorkOrderStatus {
	if exp.Feasible {
		return entities.StatusReady
	}
	return entities.StatusWaitingOnMaterial
}

// Build creates one root work order per sales-order line with a recipe and a child
// order for each producible component with a shortage. Writes go through tx.
func (b *HierarchyBuilder) Build(
	ctx context.Context,
	tx repositories.Tx,
	so *entities.SalesOrder,
	exp *dto.Explosion,
	createdBy string,
) (*dto.Hierarchy, error) {
	visitor := &hierarchyVisitor{
		tx:           tx,
		so:           so,
		exp:          exp,
		status:       PlanWideStatus(exp),
		createdBy:    createdBy,
		numbers:      b.numbers,
		onceOnly:     b.mode == AggregatedShortage,
		materialized: make(map[entities.ItemID]bool),
		rootQuantity: make(map[entities.ItemID]entities.Quantity),
		orders:       make([]*entities.WorkOrder, 0),
	}
	for _, line := range so.Lines {
		visitor.rootQuantity[line.ItemID] = visitor.rootQuantity[line.ItemID].Add(line.Quantity)
	}
	traverser := newRecipeTraverser(newRecipeCatalog(b.itemRepo, b.recipeRepo))

	for _, line := range so.Lines {
		if _, err := traverser.Traverse(ctx, line.ItemID, line.Quantity, visitor); err != nil {
			return nil, fmt.Errorf("failed to build work orders for %s: %w", line.ItemID, err)
		}
	}

	return &dto.Hierarchy{
		Orders:       visitor.orders,
		GlobalStatus: visitor.status,
	}, nil
}

// hierarchyVisitor implements RecipeNodeVisitor by creating a work order per visited recipe
type hierarchyVisitor struct {
	tx        repositories.Tx
	so        *entities.SalesOrder
	exp       *dto.Explosion
	status    entities.WorkOrderStatus
	createdBy string
	numbers   *services.OrderNumberFormat

	// onceOnly hangs each component's shortage under the first parent that reaches it,
	// less what the root orders for the same item already build
	onceOnly     bool
	materialized map[entities.ItemID]bool
	rootQuantity map[entities.ItemID]entities.Quantity
	orders       []*entities.WorkOrder
}

// VisitNode creates the work order and its planned materials
func (v *hierarchyVisitor) VisitNode(ctx context.Context, node RecipeNode) (interface{}, bool, error) {
	if node.Recipe == nil {
		return nil, false, nil
	}

	seq, err := v.tx.Sequences().NextValue(ctx, v.numbers.Prefix)
	if err != nil {
		return nil, false, fmt.Errorf("failed to allocate work order number: %w", err)
	}

	var parentID *uuid.UUID
	if parent, ok := node.ParentData.(*entities.WorkOrder); ok && parent != nil {
		id := parent.ID
		parentID = &id
	}

	order, err := entities.NewWorkOrder(
		v.numbers.Format(seq),
		node.ItemID,
		node.Recipe.ID,
		node.Quantity,
		v.status,
		parentID,
		v.so.ID,
		v.so.SourceLocation,
		v.createdBy,
	)
	if err != nil {
		return nil, false, apperrors.ErrConstraintViolation("invalid work order").Wrap(err)
	}

	order.Materials = make([]entities.PlannedMaterial, 0, len(node.Recipe.Lines))
	for _, line := range node.Recipe.Lines {
		order.Materials = append(order.Materials, entities.PlannedMaterial{
			ItemID:   line.InputItemID,
			Quantity: node.Recipe.ScaleLine(line, node.Quantity),
		})
	}

	if err := v.tx.WorkOrders().CreateWorkOrder(ctx, order); err != nil {
		return nil, false, fmt.Errorf("failed to create work order for %s: %w", node.ItemID, err)
	}
	v.orders = append(v.orders, order)

	return order, true, nil
}

// ChildQuantity descends into inputs that are short and producible
func (v *hierarchyVisitor) ChildQuantity(
	ctx context.Context,
	node RecipeNode,
	nodeData interface{},
	line entities.RecipeLine,
) (entities.Quantity, bool, error) {
	req, exists := v.exp.Requirements[line.InputItemID]
	if !exists || !req.IsShort() || !req.HasRecipe {
		return entities.Quantity{}, false, nil
	}
	if v.onceOnly {
		if v.materialized[line.InputItemID] {
			return entities.Quantity{}, false, nil
		}
		v.materialized[line.InputItemID] = true
		qty := req.Shortage.Sub(v.rootQuantity[line.InputItemID])
		return qty, qty.IsPositive(), nil
	}
	return req.Shortage, true, nil
}

// ProcessChildren has nothing to combine; orders are collected as they are created
func (v *hierarchyVisitor) ProcessChildren(
	ctx context.Context,
	node RecipeNode,
	nodeData interface{},
	childResults []interface{},
) (interface{}, error) {
	return nodeData, nil
}
