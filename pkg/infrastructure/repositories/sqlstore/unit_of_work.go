package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

var _ repositories.UnitOfWork = (*Store)(nil)

// WithTransaction runs fn inside one database transaction. Any error rolls back
// every write made through tx.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx repositories.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

// View runs fn in a transaction that is always rolled back
func (s *Store) View(ctx context.Context, fn func(tx repositories.Tx) error) error {
	errRollback := errors.New("read-only transaction")
	err := s.WithTransaction(ctx, func(tx repositories.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errRollback
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

// gormTx implements repositories.Tx over one gorm transaction
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) WorkOrders() repositories.WorkOrderRepository     { return workOrderRepo{t.db} }
func (t *gormTx) Requisitions() repositories.RequisitionRepository { return requisitionRepo{t.db} }
func (t *gormTx) PlanRuns() repositories.PlanRunRepository         { return planRunRepo{t.db} }
func (t *gormTx) Sequences() repositories.SequenceRepository       { return sequenceRepo{t.db} }

type workOrderRepo struct{ db *gorm.DB }

func (r workOrderRepo) CreateWorkOrder(ctx context.Context, order *entities.WorkOrder) error {
	row := workOrderRow{
		ID:              order.ID,
		Number:          order.Number,
		ItemID:          string(order.ItemID),
		RecipeID:        string(order.RecipeID),
		PlannedQuantity: order.PlannedQuantity,
		Status:          string(order.Status),
		ParentID:        order.ParentID,
		SalesOrderID:    string(order.SalesOrderID),
		LocationID:      order.LocationID,
		CreatedBy:       order.CreatedBy,
		CreatedAt:       order.CreatedAt,
	}
	for i, m := range order.Materials {
		row.Materials = append(row.Materials, plannedMaterialRow{
			WorkOrderID: order.ID,
			LineNo:      i,
			ItemID:      string(m.ItemID),
			Quantity:    m.Quantity,
		})
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	return translate(err, fmt.Sprintf("create work order %s", order.Number))
}

func (r workOrderRepo) ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.WorkOrder, error) {
	var rows []workOrderRow
	err := r.db.WithContext(ctx).
		Preload("Materials", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("sales_order_id = ?", string(salesOrderID)).
		Order("created_at, number").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	orders := make([]*entities.WorkOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, rows[i].toEntity())
	}
	return orders, nil
}

type requisitionRepo struct{ db *gorm.DB }

func (r requisitionRepo) CreatePurchaseRequisition(ctx context.Context, req *entities.PurchaseRequisition) error {
	row := requisitionRow{
		ID:           req.ID,
		Number:       req.Number,
		SalesOrderID: string(req.SalesOrderID),
		Priority:     string(req.Priority),
		RequestedBy:  req.RequestedBy,
		CreatedAt:    req.CreatedAt,
	}
	for i, line := range req.Lines {
		row.Lines = append(row.Lines, requisitionLineRow{
			RequisitionID: req.ID,
			LineNo:        i,
			ItemID:        string(line.ItemID),
			Quantity:      line.Quantity,
			Note:          line.Note,
		})
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	return translate(err, fmt.Sprintf("create purchase requisition %s", req.Number))
}

func (r requisitionRepo) ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.PurchaseRequisition, error) {
	var rows []requisitionRow
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("sales_order_id = ?", string(salesOrderID)).
		Order("created_at, number").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entities.PurchaseRequisition, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

type planRunRepo struct{ db *gorm.DB }

func (r planRunRepo) CreatePlanRun(ctx context.Context, run *entities.PlanRun) error {
	row := planRunFromEntity(run)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrConflict(fmt.Sprintf("sales order %s has already been planned", run.SalesOrderID)).
			WithDetail("sales_order_id", string(run.SalesOrderID)).
			Wrap(err)
	}
	return translate(err, "create plan run")
}

func (r planRunRepo) UpdatePlanRun(ctx context.Context, run *entities.PlanRun) error {
	row := planRunFromEntity(run)
	res := r.db.WithContext(ctx).Model(&planRunRow{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":           row.Status,
		"global_status":    row.GlobalStatus,
		"work_order_count": row.WorkOrderCount,
		"requisition_id":   row.RequisitionID,
		"completed_at":     row.CompletedAt,
	})
	if res.Error != nil {
		return translate(res.Error, "update plan run")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound("plan run", run.ID.String())
	}
	return nil
}

func (r planRunRepo) GetBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) (*entities.PlanRun, error) {
	var row planRunRow
	err := r.db.WithContext(ctx).First(&row, "sales_order_id = ?", string(salesOrderID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound("plan run", string(salesOrderID))
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

type sequenceRepo struct{ db *gorm.DB }

// NextValue increments the named counter, creating it at 1. The upsert is a single
// statement, so transactions starting a new name at the same time cannot both insert.
func (r sequenceRepo) NextValue(ctx context.Context, name string) (int64, error) {
	row := codeSequenceRow{Name: name, Value: 1}
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("code_sequences.value + 1")}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "value"}}},
		).
		Create(&row).Error
	if err != nil {
		return 0, translate(err, fmt.Sprintf("advance sequence %s", name))
	}
	return row.Value, nil
}

func (r *workOrderRow) toEntity() *entities.WorkOrder {
	order := &entities.WorkOrder{
		ID:              r.ID,
		Number:          r.Number,
		ItemID:          entities.ItemID(r.ItemID),
		RecipeID:        entities.RecipeID(r.RecipeID),
		PlannedQuantity: r.PlannedQuantity,
		Status:          entities.WorkOrderStatus(r.Status),
		ParentID:        r.ParentID,
		SalesOrderID:    entities.SalesOrderID(r.SalesOrderID),
		LocationID:      r.LocationID,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		Materials:       make([]entities.PlannedMaterial, 0, len(r.Materials)),
	}
	for _, m := range r.Materials {
		order.Materials = append(order.Materials, entities.PlannedMaterial{
			ItemID:   entities.ItemID(m.ItemID),
			Quantity: m.Quantity,
		})
	}
	return order
}

func (r *requisitionRow) toEntity() *entities.PurchaseRequisition {
	req := &entities.PurchaseRequisition{
		ID:           r.ID,
		Number:       r.Number,
		SalesOrderID: entities.SalesOrderID(r.SalesOrderID),
		Priority:     entities.Priority(r.Priority),
		RequestedBy:  r.RequestedBy,
		CreatedAt:    r.CreatedAt,
		Lines:        make([]entities.RequisitionLine, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		req.Lines = append(req.Lines, entities.RequisitionLine{
			ItemID:   entities.ItemID(line.ItemID),
			Quantity: line.Quantity,
			Note:     line.Note,
		})
	}
	return req
}

func planRunFromEntity(run *entities.PlanRun) planRunRow {
	return planRunRow{
		ID:             run.ID,
		SalesOrderID:   string(run.SalesOrderID),
		Status:         string(run.Status),
		GlobalStatus:   string(run.GlobalStatus),
		WorkOrderCount: run.WorkOrderCount,
		RequisitionID:  run.RequisitionID,
		CreatedBy:      run.CreatedBy,
		CreatedAt:      run.CreatedAt,
		CompletedAt:    run.CompletedAt,
	}
}

func (r *planRunRow) toEntity() *entities.PlanRun {
	return &entities.PlanRun{
		ID:             r.ID,
		SalesOrderID:   entities.SalesOrderID(r.SalesOrderID),
		Status:         entities.PlanRunStatus(r.Status),
		GlobalStatus:   entities.WorkOrderStatus(r.GlobalStatus),
		WorkOrderCount: r.WorkOrderCount,
		RequisitionID:  r.RequisitionID,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
}
