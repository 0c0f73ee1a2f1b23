package dto

import (
	"github.com/google/uuid"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// SimulationResult is the read-only outcome of a what-if explosion
type SimulationResult struct {
	SalesOrderID   entities.SalesOrderID     `json:"sales_order_id"`
	Mode           string                    `json:"mode"`
	Requirements   []entities.NetRequirement `json:"requirements"`
	MissingRecipes []entities.ItemID         `json:"missing_recipes"`
	Feasible       bool                      `json:"feasible"`
}

// BlockingIssue explains why a plan cannot be fully satisfied automatically
type BlockingIssue struct {
	ItemID   entities.ItemID   `json:"item_id"`
	Kind     entities.ItemKind `json:"kind"`
	Reason   string            `json:"reason"`
	Shortage entities.Quantity `json:"shortage"`
}

// WorkOrderSummary is the externally visible view of a created work order
type WorkOrderSummary struct {
	ID              uuid.UUID                  `json:"id"`
	Number          string                     `json:"number"`
	ItemID          entities.ItemID            `json:"item_id"`
	RecipeID        entities.RecipeID          `json:"recipe_id"`
	PlannedQuantity entities.Quantity          `json:"planned_quantity"`
	Status          entities.WorkOrderStatus   `json:"status"`
	ParentID        *uuid.UUID                 `json:"parent_id,omitempty"`
	LocationID      string                     `json:"location_id"`
	Materials       []entities.PlannedMaterial `json:"materials"`
}

// RequisitionSummary is the externally visible view of a raised requisition
type RequisitionSummary struct {
	ID       uuid.UUID                  `json:"id"`
	Number   string                     `json:"number"`
	Priority entities.Priority          `json:"priority"`
	Lines    []entities.RequisitionLine `json:"lines"`
}

// PlanResult is the outcome of a committed planning run
type PlanResult struct {
	Success                    bool                      `json:"success"`
	SalesOrderID               entities.SalesOrderID     `json:"sales_order_id"`
	GlobalStatus               entities.WorkOrderStatus  `json:"global_status"`
	WorkOrderCount             int                       `json:"work_order_count"`
	WorkOrders                 []WorkOrderSummary        `json:"work_orders"`
	PurchaseRequisitionCreated bool                      `json:"purchase_requisition_created"`
	PurchaseRequisition        *RequisitionSummary       `json:"purchase_requisition,omitempty"`
	Requirements               []entities.NetRequirement `json:"requirements"`
	MissingRecipes             []entities.ItemID         `json:"missing_recipes"`
	BlockingIssues             []BlockingIssue           `json:"blocking_issues"`
}

// NewWorkOrderSummary converts a work order for output
func NewWorkOrderSummary(order *entities.WorkOrder) WorkOrderSummary {
	return WorkOrderSummary{
		ID:              order.ID,
		Number:          order.Number,
		ItemID:          order.ItemID,
		RecipeID:        order.RecipeID,
		PlannedQuantity: order.PlannedQuantity,
		Status:          order.Status,
		ParentID:        order.ParentID,
		LocationID:      order.LocationID,
		Materials:       order.Materials,
	}
}

// NewRequisitionSummary converts a requisition for output, nil stays nil
func NewRequisitionSummary(req *entities.PurchaseRequisition) *RequisitionSummary {
	if req == nil {
		return nil
	}
	return &RequisitionSummary{
		ID:       req.ID,
		Number:   req.Number,
		Priority: req.Priority,
		Lines:    req.Lines,
	}
}
