package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// SalesOrderRepository provides in-memory sales order storage
type SalesOrderRepository struct {
	mu     sync.RWMutex
	orders map[entities.SalesOrderID]*entities.SalesOrder
	ids    []entities.SalesOrderID
}

// NewSalesOrderRepository creates a new in-memory sales order repository
func NewSalesOrderRepository() *SalesOrderRepository {
	return &SalesOrderRepository{
		orders: make(map[entities.SalesOrderID]*entities.SalesOrder),
	}
}

// Verify interface compliance
var _ repositories.SalesOrderRepository = (*SalesOrderRepository)(nil)

// LoadSalesOrders loads sales orders into the repository
func (r *SalesOrderRepository) LoadSalesOrders(orders []*entities.SalesOrder) error {
	for _, so := range orders {
		if err := r.AddSalesOrder(so); err != nil {
			return err
		}
	}
	return nil
}

// AddSalesOrder adds a sales order
func (r *SalesOrderRepository) AddSalesOrder(so *entities.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[so.ID]; exists {
		return fmt.Errorf("duplicate sales order id: %s", so.ID)
	}
	r.orders[so.ID] = so
	r.ids = append(r.ids, so.ID)
	return nil
}

// GetSalesOrder returns a sales order with its lines
func (r *SalesOrderRepository) GetSalesOrder(ctx context.Context, id entities.SalesOrderID) (*entities.SalesOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	so, exists := r.orders[id]
	if !exists {
		return nil, apperrors.ErrNotFound("sales order", string(id))
	}
	return so, nil
}

// IDs returns the sales order ids in insertion order
func (r *SalesOrderRepository) IDs() []entities.SalesOrderID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.SalesOrderID, len(r.ids))
	copy(out, r.ids)
	return out
}
