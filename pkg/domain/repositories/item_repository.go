package repositories

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// ItemRepository provides access to item master data.
// GetItem returns a NOT_FOUND AppError for unknown ids.
type ItemRepository interface {
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)
	ListItems(ctx context.Context) ([]*entities.Item, error)
}
