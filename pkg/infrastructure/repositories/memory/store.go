package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// planState is everything a planning transaction can write
type planState struct {
	workOrders   []*entities.WorkOrder
	woNumbers    map[string]bool
	requisitions []*entities.PurchaseRequisition
	reqNumbers   map[string]bool
	planRuns     map[entities.SalesOrderID]*entities.PlanRun
	sequences    map[string]int64
}

func newPlanState() *planState {
	return &planState{
		workOrders:   make([]*entities.WorkOrder, 0),
		woNumbers:    make(map[string]bool),
		requisitions: make([]*entities.PurchaseRequisition, 0),
		reqNumbers:   make(map[string]bool),
		planRuns:     make(map[entities.SalesOrderID]*entities.PlanRun),
		sequences:    make(map[string]int64),
	}
}

// clone copies the containers. Stored entities are never mutated in place.
func (s *planState) clone() *planState {
	c := &planState{
		workOrders:   make([]*entities.WorkOrder, len(s.workOrders)),
		woNumbers:    make(map[string]bool, len(s.woNumbers)),
		requisitions: make([]*entities.PurchaseRequisition, len(s.requisitions)),
		reqNumbers:   make(map[string]bool, len(s.reqNumbers)),
		planRuns:     make(map[entities.SalesOrderID]*entities.PlanRun, len(s.planRuns)),
		sequences:    make(map[string]int64, len(s.sequences)),
	}
	copy(c.workOrders, s.workOrders)
	copy(c.requisitions, s.requisitions)
	for k, v := range s.woNumbers {
		c.woNumbers[k] = v
	}
	for k, v := range s.reqNumbers {
		c.reqNumbers[k] = v
	}
	for k, v := range s.planRuns {
		c.planRuns[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store is a copy-on-write transactional store for planning output.
// Transactions are serialized; a failed transaction leaves no trace.
type Store struct {
	mu    sync.Mutex
	state *planState
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newPlanState()}
}

// Verify interface compliance
var _ repositories.UnitOfWork = (*Store)(nil)

// WithTransaction runs fn against a private copy and publishes it only on success
func (s *Store) WithTransaction(ctx context.Context, fn func(tx repositories.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &storeTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View runs fn against the committed state. Writes made through tx are discarded.
func (s *Store) View(ctx context.Context, fn func(tx repositories.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&storeTx{state: s.state.clone()})
}

// Counts returns the number of committed work orders, requisitions and plan runs
func (s *Store) Counts() (workOrders, requisitions, planRuns int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.state.workOrders), len(s.state.requisitions), len(s.state.planRuns)
}

// storeTx implements repositories.Tx over one planState
type storeTx struct {
	state *planState
}

func (t *storeTx) WorkOrders() repositories.WorkOrderRepository     { return workOrderRepo{t} }
func (t *storeTx) Requisitions() repositories.RequisitionRepository { return requisitionRepo{t} }
func (t *storeTx) PlanRuns() repositories.PlanRunRepository         { return planRunRepo{t} }
func (t *storeTx) Sequences() repositories.SequenceRepository       { return sequenceRepo{t} }

type workOrderRepo struct{ tx *storeTx }

func (r workOrderRepo) CreateWorkOrder(ctx context.Context, order *entities.WorkOrder) error {
	st := r.tx.state
	if st.woNumbers[order.Number] {
		return apperrors.ErrConstraintViolation(fmt.Sprintf("work order number %s already exists", order.Number))
	}
	if order.ParentID != nil && !r.exists(*order.ParentID) {
		return apperrors.ErrConstraintViolation(fmt.Sprintf("parent work order %s does not exist", order.ParentID))
	}
	stored := *order
	st.workOrders = append(st.workOrders, &stored)
	st.woNumbers[order.Number] = true
	return nil
}

func (r workOrderRepo) exists(id uuid.UUID) bool {
	for _, wo := range r.tx.state.workOrders {
		if wo.ID == id {
			return true
		}
	}
	return false
}

func (r workOrderRepo) ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.WorkOrder, error) {
	out := make([]*entities.WorkOrder, 0)
	for _, wo := range r.tx.state.workOrders {
		if wo.SalesOrderID == salesOrderID {
			copied := *wo
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type requisitionRepo struct{ tx *storeTx }

func (r requisitionRepo) CreatePurchaseRequisition(ctx context.Context, req *entities.PurchaseRequisition) error {
	st := r.tx.state
	if st.reqNumbers[req.Number] {
		return apperrors.ErrConstraintViolation(fmt.Sprintf("requisition number %s already exists", req.Number))
	}
	stored := *req
	st.requisitions = append(st.requisitions, &stored)
	st.reqNumbers[req.Number] = true
	return nil
}

func (r requisitionRepo) ListBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) ([]*entities.PurchaseRequisition, error) {
	out := make([]*entities.PurchaseRequisition, 0)
	for _, req := range r.tx.state.requisitions {
		if req.SalesOrderID == salesOrderID {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

type planRunRepo struct{ tx *storeTx }

func (r planRunRepo) CreatePlanRun(ctx context.Context, run *entities.PlanRun) error {
	if _, exists := r.tx.state.planRuns[run.SalesOrderID]; exists {
		return apperrors.ErrConflict(fmt.Sprintf("sales order %s has already been planned", run.SalesOrderID)).
			WithDetail("sales_order_id", string(run.SalesOrderID))
	}
	stored := *run
	r.tx.state.planRuns[run.SalesOrderID] = &stored
	return nil
}

func (r planRunRepo) UpdatePlanRun(ctx context.Context, run *entities.PlanRun) error {
	existing, exists := r.tx.state.planRuns[run.SalesOrderID]
	if !exists || existing.ID != run.ID {
		return apperrors.ErrNotFound("plan run", run.ID.String())
	}
	stored := *run
	r.tx.state.planRuns[run.SalesOrderID] = &stored
	return nil
}

func (r planRunRepo) GetBySalesOrder(ctx context.Context, salesOrderID entities.SalesOrderID) (*entities.PlanRun, error) {
	run, exists := r.tx.state.planRuns[salesOrderID]
	if !exists {
		return nil, apperrors.ErrNotFound("plan run", string(salesOrderID))
	}
	copied := *run
	return &copied, nil
}

type sequenceRepo struct{ tx *storeTx }

func (r sequenceRepo) NextValue(ctx context.Context, name string) (int64, error) {
	r.tx.state.sequences[name]++
	return r.tx.state.sequences[name], nil
}
