package repositories

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// InventoryRepository answers stock questions summed across all locations
type InventoryRepository interface {
	GetOnHandQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error)
	GetActiveReservedQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error)
}
