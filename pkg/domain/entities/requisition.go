package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority of a purchase requisition
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// RequisitionLine asks purchasing for a quantity of one item
type RequisitionLine struct {
	ItemID   ItemID   `json:"item_id"`
	Quantity Quantity `json:"quantity"`
	Note     string   `json:"note"`
}

// PurchaseRequisition groups the buy lines raised for one sales order
type PurchaseRequisition struct {
	ID           uuid.UUID
	Number       string
	SalesOrderID SalesOrderID
	Priority     Priority
	RequestedBy  string
	CreatedAt    time.Time
	Lines        []RequisitionLine
}

// NewPurchaseRequisition creates a validated PurchaseRequisition with a fresh id
func NewPurchaseRequisition(
	number string,
	salesOrderID SalesOrderID,
	priority Priority,
	requestedBy string,
	lines []RequisitionLine,
) (*PurchaseRequisition, error) {
	if number == "" {
		return nil, fmt.Errorf("requisition number cannot be empty")
	}
	switch priority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
	default:
		return nil, fmt.Errorf("unknown priority: %s", priority)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("requisition %s has no lines", number)
	}
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("requisition line for %s must have positive quantity, got %s", line.ItemID, line.Quantity)
		}
	}

	return &PurchaseRequisition{
		ID:           uuid.New(),
		Number:       number,
		SalesOrderID: salesOrderID,
		Priority:     priority,
		RequestedBy:  requestedBy,
		CreatedAt:    time.Now().UTC(),
		Lines:        lines,
	}, nil
}
