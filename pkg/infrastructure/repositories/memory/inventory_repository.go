package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
)

type stockKey struct {
	itemID   entities.ItemID
	location string
}

// Reservation holds stock for another document
type Reservation struct {
	ItemID   entities.ItemID
	Location string
	Quantity entities.Quantity
	Active   bool
}

// InventoryRepository provides in-memory stock balances per item and location
type InventoryRepository struct {
	mu           sync.RWMutex
	onHand       map[stockKey]entities.Quantity
	reservations []Reservation
}

// NewInventoryRepository creates a new in-memory inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		onHand:       make(map[stockKey]entities.Quantity),
		reservations: make([]Reservation, 0),
	}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// SetOnHand sets the on-hand balance of an item at a location
func (r *InventoryRepository) SetOnHand(itemID entities.ItemID, location string, quantity entities.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onHand[stockKey{itemID: itemID, location: location}] = quantity
}

// AddReservation records a reservation against an item
func (r *InventoryRepository) AddReservation(reservation Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reservations = append(r.reservations, reservation)
}

// GetOnHandQuantity sums the on-hand balance across all locations
func (r *InventoryRepository) GetOnHandQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for key, qty := range r.onHand {
		if key.itemID == itemID {
			total = total.Add(qty)
		}
	}
	return total, nil
}

// GetActiveReservedQuantity sums active reservations across all locations
func (r *InventoryRepository) GetActiveReservedQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, res := range r.reservations {
		if res.ItemID == itemID && res.Active {
			total = total.Add(res.Quantity)
		}
	}
	return total, nil
}
