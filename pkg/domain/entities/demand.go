package entities

import "fmt"

// SalesOrderID represents a unique sales order identifier
type SalesOrderID string

// Demand is a request for a quantity of an item. Sales order lines are demands.
type Demand struct {
	ItemID   ItemID   `json:"item_id"`
	Quantity Quantity `json:"quantity"`
}

// NewDemand creates a validated Demand
func NewDemand(itemID ItemID, quantity Quantity) (*Demand, error) {
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("demand quantity must be positive, got %s", quantity)
	}
	return &Demand{ItemID: itemID, Quantity: quantity}, nil
}

// SalesOrder is the demand document that drives a planning run
type SalesOrder struct {
	ID             SalesOrderID
	Number         string
	SourceLocation string
	Lines          []Demand
}

// NewSalesOrder creates a validated SalesOrder
func NewSalesOrder(id SalesOrderID, number, sourceLocation string, lines []Demand) (*SalesOrder, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("sales order id cannot be empty")
	}
	if number == "" {
		return nil, fmt.Errorf("sales order number cannot be empty")
	}
	if sourceLocation == "" {
		return nil, fmt.Errorf("source location cannot be empty")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("sales order %s has no lines", number)
	}
	return &SalesOrder{
		ID:             id,
		Number:         number,
		SourceLocation: sourceLocation,
		Lines:          lines,
	}, nil
}

// NetRequirement is the per-item result of an explosion
type NetRequirement struct {
	ItemID    ItemID   `json:"item_id"`
	Kind      ItemKind `json:"kind"`
	Needed    Quantity `json:"needed"`
	Available Quantity `json:"available"`
	Shortage  Quantity `json:"shortage"`
	HasRecipe bool     `json:"has_recipe"`
	Level     int      `json:"level"`
}

// IsShort reports whether the requirement cannot be covered from stock
func (r *NetRequirement) IsShort() bool {
	return r.Shortage.IsPositive()
}
