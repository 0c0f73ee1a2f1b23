package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkOrderStatus is the material readiness of a work order
type WorkOrderStatus string

const (
	StatusReady             WorkOrderStatus = "READY"
	StatusWaitingOnMaterial WorkOrderStatus = "WAITING_ON_MATERIAL"
)

// PlannedMaterial is a recipe line scaled to a work order's planned quantity
type PlannedMaterial struct {
	ItemID   ItemID   `json:"item_id"`
	Quantity Quantity `json:"quantity"`
}

// WorkOrder represents a planned production order
type WorkOrder struct {
	ID              uuid.UUID
	Number          string
	ItemID          ItemID
	RecipeID        RecipeID
	PlannedQuantity Quantity
	Status          WorkOrderStatus
	ParentID        *uuid.UUID
	SalesOrderID    SalesOrderID
	LocationID      string
	CreatedBy       string
	CreatedAt       time.Time
	Materials       []PlannedMaterial
}

// NewWorkOrder creates a validated WorkOrder with a fresh id
func NewWorkOrder(
	number string,
	itemID ItemID,
	recipeID RecipeID,
	plannedQuantity Quantity,
	status WorkOrderStatus,
	parentID *uuid.UUID,
	salesOrderID SalesOrderID,
	locationID, createdBy string,
) (*WorkOrder, error) {
	if number == "" {
		return nil, fmt.Errorf("work order number cannot be empty")
	}
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if string(recipeID) == "" {
		return nil, fmt.Errorf("recipe id cannot be empty")
	}
	if !plannedQuantity.IsPositive() {
		return nil, fmt.Errorf("planned quantity must be positive, got %s", plannedQuantity)
	}
	if status != StatusReady && status != StatusWaitingOnMaterial {
		return nil, fmt.Errorf("unknown work order status: %s", status)
	}
	if locationID == "" {
		return nil, fmt.Errorf("location cannot be empty")
	}

	return &WorkOrder{
		ID:              uuid.New(),
		Number:          number,
		ItemID:          itemID,
		RecipeID:        recipeID,
		PlannedQuantity: plannedQuantity,
		Status:          status,
		ParentID:        parentID,
		SalesOrderID:    salesOrderID,
		LocationID:      locationID,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// IsRoot reports whether the order was created directly for a sales order line
func (w *WorkOrder) IsRoot() bool {
	return w.ParentID == nil
}
