package mrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/events"
)

// PlannerConfig holds configuration for the planner
type PlannerConfig struct {
	Mode               ShortageMode
	LockTTL            time.Duration
	WorkOrderNumbers   *services.OrderNumberFormat
	RequisitionNumbers *services.OrderNumberFormat
}

// DefaultPlannerConfig returns aggregated netting with WO-000001 / PR-000001 numbering
func DefaultPlannerConfig() PlannerConfig {
	wo, _ := services.NewOrderNumberFormat("WO", 6)
	pr, _ := services.NewOrderNumberFormat("PR", 6)
	return PlannerConfig{
		Mode:               AggregatedShortage,
		LockTTL:            30 * time.Second,
		WorkOrderNumbers:   wo,
		RequisitionNumbers: pr,
	}
}

// PlanObserver receives planning measurements
type PlanObserver interface {
	ExplosionFinished(mode ShortageMode, duration time.Duration)
	PlanCompleted(result *dto.PlanResult)
	PlanFailed(code string)
}

type noopObserver struct{}

func (noopObserver) ExplosionFinished(ShortageMode, time.Duration) {}
func (noopObserver) PlanCompleted(*dto.PlanResult)                 {}
func (noopObserver) PlanFailed(string)                             {}

// SimulateOptions controls a what-if run
type SimulateOptions struct {
	IncludeReservations bool
}

// Planner composes explosion, hierarchy building and procurement into simulate and plan
type Planner struct {
	salesOrderRepo repositories.SalesOrderRepository
	uow            repositories.UnitOfWork
	locker         repositories.PlanLocker
	eventStore     events.EventStore
	observer       PlanObserver

	engine    *ExplosionEngine
	hierarchy *HierarchyBuilder
	bridge    *ProcurementBridge
	config    PlannerConfig
}

// NewPlanner creates a new planner. eventStore may be nil.
func NewPlanner(
	salesOrderRepo repositories.SalesOrderRepository,
	itemRepo repositories.ItemRepository,
	recipeRepo repositories.RecipeRepository,
	inventoryRepo repositories.InventoryRepository,
	uow repositories.UnitOfWork,
	locker repositories.PlanLocker,
	eventStore events.EventStore,
	config PlannerConfig,
) (*Planner, error) {
	if salesOrderRepo == nil || itemRepo == nil || recipeRepo == nil || inventoryRepo == nil {
		return nil, fmt.Errorf("planner requires sales order, item, recipe and inventory repositories")
	}
	if uow == nil {
		return nil, fmt.Errorf("planner requires a unit of work")
	}
	if locker == nil {
		return nil, fmt.Errorf("planner requires a plan locker")
	}
	defaults := DefaultPlannerConfig()
	if config.Mode == "" {
		config.Mode = defaults.Mode
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if config.WorkOrderNumbers == nil {
		config.WorkOrderNumbers = defaults.WorkOrderNumbers
	}
	if config.RequisitionNumbers == nil {
		config.RequisitionNumbers = defaults.RequisitionNumbers
	}

	return &Planner{
		salesOrderRepo: salesOrderRepo,
		uow:            uow,
		locker:         locker,
		eventStore:     eventStore,
		observer:       noopObserver{},
		engine:         NewExplosionEngine(itemRepo, recipeRepo, inventoryRepo),
		hierarchy:      NewHierarchyBuilder(itemRepo, recipeRepo, config.WorkOrderNumbers, config.Mode),
		bridge:         NewProcurementBridge(config.RequisitionNumbers),
		config:         config,
	}, nil
}

// WithObserver sets the observer notified about explosions and plan outcomes
func (p *Planner) WithObserver(observer PlanObserver) *Planner {
	if observer != nil {
		p.observer = observer
	}
	return p
}

// Mode returns the configured shortage mode
func (p *Planner) Mode() ShortageMode {
	return p.config.Mode
}

// Simulate explodes the sales order without writing anything
func (p *Planner) Simulate(
	ctx context.Context,
	salesOrderID entities.SalesOrderID,
	opts SimulateOptions,
) (*dto.SimulationResult, error) {
	so, err := p.loadSalesOrder(ctx, salesOrderID)
	if err != nil {
		return nil, err
	}

	exp, err := p.explode(ctx, so, opts.IncludeReservations)
	if err != nil {
		return nil, err
	}

	return &dto.SimulationResult{
		SalesOrderID:   so.ID,
		Mode:           exp.Mode,
		Requirements:   exp.Ordered(),
		MissingRecipes: exp.MissingRecipes,
		Feasible:       exp.Feasible,
	}, nil
}

// Plan explodes the sales order and atomically creates its work orders and requisition.
// A sales order can be planned once; a second call fails with CONFLICT.
func (p *Planner) Plan(
	ctx context.Context,
	salesOrderID entities.SalesOrderID,
	userID string,
) (*dto.PlanResult, error) {
	result, err := p.plan(ctx, salesOrderID, userID)
	if err != nil {
		code := apperrors.CodeOf(err)
		p.observer.PlanFailed(code)
		p.publish(events.NewPlanFailedEvent(salesOrderID, code, err.Error()))
		log.Warn().Err(err).
			Str("sales_order_id", string(salesOrderID)).
			Str("code", code).
			Msg("plan failed")
		return nil, err
	}
	return result, nil
}

func (p *Planner) plan(
	ctx context.Context,
	salesOrderID entities.SalesOrderID,
	userID string,
) (*dto.PlanResult, error) {
	if userID == "" {
		return nil, apperrors.ErrValidation("user id is required")
	}

	so, err := p.loadSalesOrder(ctx, salesOrderID)
	if err != nil {
		return nil, err
	}

	release, err := p.locker.Acquire(ctx, planLockKey(so.ID), p.config.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			log.Warn().Err(err).Str("sales_order_id", string(so.ID)).Msg("failed to release plan lock")
		}
	}()

	exp, err := p.explode(ctx, so, true)
	if err != nil {
		return nil, err
	}

	var (
		hierarchy   *dto.Hierarchy
		requisition *entities.PurchaseRequisition
		run         *entities.PlanRun
	)
	err = p.uow.WithTransaction(ctx, func(tx repositories.Tx) error {
		run = entities.NewPlanRun(so.ID, userID)
		if err := tx.PlanRuns().CreatePlanRun(ctx, run); err != nil {
			return err
		}

		var err error
		hierarchy, err = p.hierarchy.Build(ctx, tx, so, exp, userID)
		if err != nil {
			return err
		}

		requisition, err = p.bridge.Bridge(ctx, tx, so, exp, userID)
		if err != nil {
			return err
		}

		var requisitionID *uuid.UUID
		if requisition != nil {
			requisitionID = &requisition.ID
		}
		run.Complete(hierarchy.GlobalStatus, len(hierarchy.Orders), requisitionID)
		return tx.PlanRuns().UpdatePlanRun(ctx, run)
	})
	if err != nil {
		return nil, err
	}

	result := buildPlanResult(so, exp, hierarchy, requisition)
	p.publishPlan(run, hierarchy, requisition, exp.MissingRecipes)
	p.observer.PlanCompleted(result)

	log.Info().
		Str("sales_order_id", string(so.ID)).
		Str("global_status", string(result.GlobalStatus)).
		Int("work_orders", result.WorkOrderCount).
		Bool("requisition", result.PurchaseRequisitionCreated).
		Int("missing_recipes", len(result.MissingRecipes)).
		Msg("plan committed")

	return result, nil
}

func (p *Planner) loadSalesOrder(ctx context.Context, id entities.SalesOrderID) (*entities.SalesOrder, error) {
	so, err := p.salesOrderRepo.GetSalesOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales order %s: %w", id, err)
	}
	if so == nil {
		return nil, apperrors.ErrNotFound("sales order", string(id))
	}
	return so, nil
}

func (p *Planner) explode(ctx context.Context, so *entities.SalesOrder, includeReservations bool) (*dto.Explosion, error) {
	start := time.Now()
	exp, err := p.engine.Explode(ctx, so.Lines, ExplodeOptions{
		IncludeReservations: includeReservations,
		Mode:                p.config.Mode,
	})
	if err != nil {
		return nil, err
	}
	p.observer.ExplosionFinished(p.config.Mode, time.Since(start))
	return exp, nil
}

func buildPlanResult(
	so *entities.SalesOrder,
	exp *dto.Explosion,
	hierarchy *dto.Hierarchy,
	requisition *entities.PurchaseRequisition,
) *dto.PlanResult {
	orders := make([]dto.WorkOrderSummary, 0, len(hierarchy.Orders))
	for _, order := range hierarchy.Orders {
		orders = append(orders, dto.NewWorkOrderSummary(order))
	}

	issues := make([]dto.BlockingIssue, 0, len(exp.MissingRecipes))
	for _, id := range exp.MissingRecipes {
		req := exp.Requirements[id]
		issues = append(issues, dto.BlockingIssue{
			ItemID:   id,
			Kind:     req.Kind,
			Reason:   fmt.Sprintf("%s %s has no default recipe", req.Kind, id),
			Shortage: req.Shortage,
		})
	}

	return &dto.PlanResult{
		Success:                    true,
		SalesOrderID:               so.ID,
		GlobalStatus:               hierarchy.GlobalStatus,
		WorkOrderCount:             len(hierarchy.Orders),
		WorkOrders:                 orders,
		PurchaseRequisitionCreated: requisition != nil,
		PurchaseRequisition:        dto.NewRequisitionSummary(requisition),
		Requirements:               exp.Ordered(),
		MissingRecipes:             exp.MissingRecipes,
		BlockingIssues:             issues,
	}
}

func (p *Planner) publishPlan(
	run *entities.PlanRun,
	hierarchy *dto.Hierarchy,
	requisition *entities.PurchaseRequisition,
	missing []entities.ItemID,
) {
	for _, order := range hierarchy.Orders {
		p.publish(events.NewWorkOrderPlannedEvent(order))
	}
	requisitionNumber := ""
	if requisition != nil {
		requisitionNumber = requisition.Number
		p.publish(events.NewRequisitionRaisedEvent(requisition))
	}
	p.publish(events.NewPlanCompletedEvent(run, requisitionNumber, missing))
}

// publish appends to the event store. Events are written after commit, so a failure
// is logged and never undoes the plan.
func (p *Planner) publish(event events.Event) {
	if p.eventStore == nil {
		return
	}
	if err := p.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		log.Warn().Err(err).Str("event_type", event.Type()).Msg("failed to publish plan event")
	}
}

func planLockKey(id entities.SalesOrderID) string {
	return "mrp:plan:" + string(id)
}
