package events

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

const (
	PlanCompletedEvent     = "plan.completed"
	PlanFailedEvent        = "plan.failed"
	WorkOrderPlannedEvent  = "workorder.planned"
	RequisitionRaisedEvent = "requisition.raised"
)

// AllPlanEventTypes lists every event type published by the planner
var AllPlanEventTypes = []string{
	PlanCompletedEvent,
	PlanFailedEvent,
	WorkOrderPlannedEvent,
	RequisitionRaisedEvent,
}

type PlanCompleted struct {
	SalesOrderID   entities.SalesOrderID    `json:"sales_order_id"`
	GlobalStatus   entities.WorkOrderStatus `json:"global_status"`
	WorkOrderCount int                      `json:"work_order_count"`
	Requisition    string                   `json:"requisition,omitempty"`
	MissingRecipes []entities.ItemID        `json:"missing_recipes"`
	PlannedBy      string                   `json:"planned_by"`
}

type PlanFailed struct {
	SalesOrderID entities.SalesOrderID `json:"sales_order_id"`
	Code         string                `json:"code"`
	Reason       string                `json:"reason"`
}

type WorkOrderPlanned struct {
	Number          string                   `json:"number"`
	ItemID          entities.ItemID          `json:"item_id"`
	PlannedQuantity decimal.Decimal          `json:"planned_quantity"`
	Status          entities.WorkOrderStatus `json:"status"`
	ParentID        string                   `json:"parent_id,omitempty"`
}

type RequisitionRaised struct {
	Number   string                     `json:"number"`
	Priority entities.Priority          `json:"priority"`
	Lines    []entities.RequisitionLine `json:"lines"`
}

func NewPlanCompletedEvent(run *entities.PlanRun, requisition string, missing []entities.ItemID) Event {
	return NewEvent(PlanCompletedEvent, string(run.SalesOrderID), PlanCompleted{
		SalesOrderID:   run.SalesOrderID,
		GlobalStatus:   run.GlobalStatus,
		WorkOrderCount: run.WorkOrderCount,
		Requisition:    requisition,
		MissingRecipes: missing,
		PlannedBy:      run.CreatedBy,
	})
}

func NewPlanFailedEvent(salesOrderID entities.SalesOrderID, code, reason string) Event {
	return NewEvent(PlanFailedEvent, string(salesOrderID), PlanFailed{
		SalesOrderID: salesOrderID,
		Code:         code,
		Reason:       reason,
	})
}

func NewWorkOrderPlannedEvent(order *entities.WorkOrder) Event {
	data := WorkOrderPlanned{
		Number:          order.Number,
		ItemID:          order.ItemID,
		PlannedQuantity: order.PlannedQuantity,
		Status:          order.Status,
	}
	if order.ParentID != nil {
		data.ParentID = order.ParentID.String()
	}
	return NewEvent(WorkOrderPlannedEvent, string(order.SalesOrderID), data)
}

func NewRequisitionRaisedEvent(req *entities.PurchaseRequisition) Event {
	return NewEvent(RequisitionRaisedEvent, string(req.SalesOrderID), RequisitionRaised{
		Number:   req.Number,
		Priority: req.Priority,
		Lines:    req.Lines,
	})
}
