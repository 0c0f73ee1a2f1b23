package repositories

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// WorkOrderRepository persists work orders together with their planned materials
type WorkOrderRepository interface {
	CreateWorkOrder(ctx context.Context, order *entities.WorkOrder) error
	ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.WorkOrder, error)
}

// RequisitionRepository persists purchase requisitions together with their lines
type RequisitionRepository interface {
	CreatePurchaseRequisition(ctx context.Context, req *entities.PurchaseRequisition) error
	ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.PurchaseRequisition, error)
}

// PlanRunRepository records planning runs. CreatePlanRun fails with CONFLICT when
// the sales order already has a run.
type PlanRunRepository interface {
	CreatePlanRun(ctx context.Context, run *entities.PlanRun) error
	UpdatePlanRun(ctx context.Context, run *entities.PlanRun) error
	GetBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) (*entities.PlanRun, error)
}

// SequenceRepository hands out monotonic numbers per sequence name
type SequenceRepository interface {
	NextValue(ctx context.Context, name string) (int64, error)
}
