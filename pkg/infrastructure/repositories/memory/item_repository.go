package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// ItemRepository provides in-memory item storage
type ItemRepository struct {
	mu       sync.RWMutex
	items    []entities.Item
	itemsMap map[entities.ItemID]int
}

// NewItemRepository creates a new in-memory item repository
func NewItemRepository(expectedItems int) *ItemRepository {
	return &ItemRepository{
		items:    make([]entities.Item, 0, expectedItems),
		itemsMap: make(map[entities.ItemID]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// LoadItems loads items into the repository
func (r *ItemRepository) LoadItems(items []*entities.Item) error {
	for _, item := range items {
		if err := r.AddItem(*item); err != nil {
			return err
		}
	}
	return nil
}

// AddItem adds an item to the repository
func (r *ItemRepository) AddItem(item entities.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.itemsMap[item.ID]; exists {
		return fmt.Errorf("duplicate item id: %s", item.ID)
	}
	r.itemsMap[item.ID] = len(r.items)
	r.items = append(r.items, item)
	return nil
}

// GetItem returns item master data for an id
func (r *ItemRepository) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsMap[id]
	if !exists {
		return nil, apperrors.ErrNotFound("item", string(id))
	}
	item := r.items[index]
	return &item, nil
}

// ListItems returns all items in insertion order
func (r *ItemRepository) ListItems(ctx context.Context) ([]*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entities.Item, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}
