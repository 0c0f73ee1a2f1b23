package entities

import (
	"time"

	"github.com/google/uuid"
)

// PlanRunStatus tracks a planning run through its transaction
type PlanRunStatus string

const (
	PlanRunStarted   PlanRunStatus = "STARTED"
	PlanRunCompleted PlanRunStatus = "COMPLETED"
)

// PlanRun records that a sales order has been planned. At most one exists per sales order.
type PlanRun struct {
	ID             uuid.UUID
	SalesOrderID   SalesOrderID
	Status         PlanRunStatus
	GlobalStatus   WorkOrderStatus
	WorkOrderCount int
	RequisitionID  *uuid.UUID
	CreatedBy      string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// NewPlanRun starts a run for a sales order
func NewPlanRun(salesOrderID SalesOrderID, createdBy string) *PlanRun {
	return &PlanRun{
		ID:           uuid.New(),
		SalesOrderID: salesOrderID,
		Status:       PlanRunStarted,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}
}

// Complete stamps the run with its outcome
func (p *PlanRun) Complete(globalStatus WorkOrderStatus, workOrderCount int, requisitionID *uuid.UUID) {
	now := time.Now().UTC()
	p.Status = PlanRunCompleted
	p.GlobalStatus = globalStatus
	p.WorkOrderCount = workOrderCount
	p.RequisitionID = requisitionID
	p.CompletedAt = &now
}
