package sqlstore

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/lock"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{
		Driver:      DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "mrp.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedFlourChain loads F -> 2 I -> 3 R with the given raw stock and SO-1 for 10 F
func seedFlourChain(t *testing.T, store *Store, rawStock int64) {
	t.Helper()
	ctx := context.Background()

	for _, item := range []struct {
		id   string
		kind entities.ItemKind
	}{{"F", entities.FinishedGood}, {"I", entities.Intermediate}, {"R", entities.RawMaterial}} {
		it, err := entities.NewItem(entities.ItemID(item.id), item.id, "EA", item.kind)
		require.NoError(t, err)
		require.NoError(t, store.SaveItem(ctx, it))
	}

	f, err := entities.NewRecipe("R-F", "F", entities.Qty(1), true, []entities.RecipeLine{{InputItemID: "I", Quantity: entities.Qty(2)}})
	require.NoError(t, err)
	require.NoError(t, store.SaveRecipe(ctx, f))
	i, err := entities.NewRecipe("R-I", "I", entities.Qty(1), true, []entities.RecipeLine{{InputItemID: "R", Quantity: entities.Qty(3)}})
	require.NoError(t, err)
	require.NoError(t, store.SaveRecipe(ctx, i))

	require.NoError(t, store.SetOnHand(ctx, "R", "MAIN", entities.Qty(rawStock)))

	so, err := entities.NewSalesOrder("SO-1", "SO-1", "MAIN", []entities.Demand{{ItemID: "F", Quantity: entities.Qty(10)}})
	require.NoError(t, err)
	require.NoError(t, store.SaveSalesOrder(ctx, so))
}

func newTestPlanner(t *testing.T, store *Store, uow repositories.UnitOfWork) *mrp.Planner {
	t.Helper()
	planner, err := mrp.NewPlanner(store, store, store, store, uow, lock.NewMemoryLocker(), nil, mrp.DefaultPlannerConfig())
	require.NoError(t, err)
	return planner
}

func TestStore_MasterData(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedFlourChain(t, store, 10)

	item, err := store.GetItem(ctx, "I")
	require.NoError(t, err)
	assert.Equal(t, entities.Intermediate, item.Kind)

	_, err = store.GetItem(ctx, "GHOST")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	recipe, err := store.GetDefaultRecipe(ctx, "F")
	require.NoError(t, err)
	require.NotNil(t, recipe)
	require.Len(t, recipe.Lines, 1)
	assert.True(t, recipe.Lines[0].Quantity.Equal(entities.Qty(2)))

	none, err := store.GetDefaultRecipe(ctx, "R")
	require.NoError(t, err)
	assert.Nil(t, none)

	second, err := entities.NewRecipe("R-F2", "F", entities.Qty(1), true, nil)
	require.NoError(t, err)
	assert.True(t, apperrors.Is(store.SaveRecipe(ctx, second), apperrors.CodeConstraintViolation))

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	recipes, err := store.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)

	so, err := store.GetSalesOrder(ctx, "SO-1")
	require.NoError(t, err)
	require.Len(t, so.Lines, 1)
	assert.Equal(t, entities.ItemID("F"), so.Lines[0].ItemID)
}

func TestStore_InventoryAggregates(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedFlourChain(t, store, 10)

	require.NoError(t, store.SetOnHand(ctx, "R", "BACKUP", entities.Qty(5)))
	require.NoError(t, store.SetOnHand(ctx, "R", "MAIN", entities.Qty(12)))
	require.NoError(t, store.AddReservation(ctx, "R", "MAIN", entities.Qty(4), true))
	require.NoError(t, store.AddReservation(ctx, "R", "BACKUP", entities.Qty(100), false))

	onHand, err := store.GetOnHandQuantity(ctx, "R")
	require.NoError(t, err)
	assert.True(t, onHand.Equal(entities.Qty(17)), "on hand %s", onHand)

	reserved, err := store.GetActiveReservedQuantity(ctx, "R")
	require.NoError(t, err)
	assert.True(t, reserved.Equal(entities.Qty(4)), "reserved %s", reserved)

	none, err := store.GetOnHandQuantity(ctx, "F")
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestStore_PlanScenario2(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedFlourChain(t, store, 10)
	planner := newTestPlanner(t, store, store)

	result, err := planner.Plan(ctx, "SO-1", "planner@plant")
	require.NoError(t, err)
	assert.Equal(t, 2, result.WorkOrderCount)
	require.NotNil(t, result.PurchaseRequisition)
	assert.Equal(t, "PR-000001", result.PurchaseRequisition.Number)

	err = store.View(ctx, func(tx repositories.Tx) error {
		orders, err := tx.WorkOrders().ListBySalesOrder(ctx, "SO-1")
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "WO-000001", orders[0].Number)
		assert.Equal(t, orders[0].ID, *orders[1].ParentID)
		require.Len(t, orders[1].Materials, 1)
		assert.True(t, orders[1].Materials[0].Quantity.Equal(entities.Qty(60)))

		requisitions, err := tx.Requisitions().ListBySalesOrder(ctx, "SO-1")
		require.NoError(t, err)
		require.Len(t, requisitions, 1)
		assert.True(t, requisitions[0].Lines[0].Quantity.Equal(entities.Qty(50)))

		run, err := tx.PlanRuns().GetBySalesOrder(ctx, "SO-1")
		require.NoError(t, err)
		assert.Equal(t, entities.PlanRunCompleted, run.Status)
		assert.Equal(t, requisitions[0].ID, *run.RequisitionID)
		return nil
	})
	require.NoError(t, err)

	_, err = planner.Plan(ctx, "SO-1", "planner@plant")
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict), "got %v", err)
}

// failingTx makes the second work order insert fail inside a real transaction
type failingUnitOfWork struct {
	store   *Store
	created int
}

func (u *failingUnitOfWork) WithTransaction(ctx context.Context, fn func(tx repositories.Tx) error) error {
	return u.store.WithTransaction(ctx, func(tx repositories.Tx) error {
		return fn(&failingTx{Tx: tx, uow: u})
	})
}

type failingTx struct {
	repositories.Tx
	uow *failingUnitOfWork
}

func (t *failingTx) WorkOrders() repositories.WorkOrderRepository {
	return failingWorkOrders{WorkOrderRepository: t.Tx.WorkOrders(), uow: t.uow}
}

type failingWorkOrders struct {
	repositories.WorkOrderRepository
	uow *failingUnitOfWork
}

func (r failingWorkOrders) CreateWorkOrder(ctx context.Context, order *entities.WorkOrder) error {
	r.uow.created++
	if r.uow.created == 2 {
		// a dangling parent trips the foreign key
		missing := uuid.New()
		order.ParentID = &missing
	}
	return r.WorkOrderRepository.CreateWorkOrder(ctx, order)
}

func TestStore_PlanRollsBackOnDeepFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedFlourChain(t, store, 10)

	_, err := newTestPlanner(t, store, &failingUnitOfWork{store: store}).Plan(ctx, "SO-1", "planner@plant")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConstraintViolation), "got %v", err)

	var workOrders, requisitions, planRuns int64
	require.NoError(t, store.DB().Model(&workOrderRow{}).Count(&workOrders).Error)
	require.NoError(t, store.DB().Model(&requisitionRow{}).Count(&requisitions).Error)
	require.NoError(t, store.DB().Model(&planRunRow{}).Count(&planRuns).Error)
	assert.Zero(t, workOrders)
	assert.Zero(t, requisitions)
	assert.Zero(t, planRuns)

	result, err := newTestPlanner(t, store, store).Plan(ctx, "SO-1", "planner@plant")
	require.NoError(t, err)
	assert.Equal(t, "WO-000001", result.WorkOrders[0].Number, "sequence rolled back with the plan")
}

func TestStore_SequencesAndUniqueNumbers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var values []int64
	for i := 0; i < 3; i++ {
		err := store.WithTransaction(ctx, func(tx repositories.Tx) error {
			v, err := tx.Sequences().NextValue(ctx, "WO")
			values = append(values, v)
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, values)

	order, err := entities.NewWorkOrder("WO-000001", "F", "R-F", entities.Qty(1),
		entities.StatusReady, nil, "SO-1", "MAIN", "tester")
	require.NoError(t, err)
	err = store.WithTransaction(ctx, func(tx repositories.Tx) error {
		if err := tx.WorkOrders().CreateWorkOrder(ctx, order); err != nil {
			return err
		}
		dup := *order
		dup.ID = uuid.New()
		return tx.WorkOrders().CreateWorkOrder(ctx, &dup)
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeConstraintViolation), "got %v", err)
}

// checkConcurrentNewSequence starts a sequence name from several transactions at once.
// Every transaction must succeed and the values must be 1..n without gaps.
func checkConcurrentNewSequence(t *testing.T, store *Store, name string, n int) {
	t.Helper()
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values []int64
		errs   []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := store.WithTransaction(ctx, func(tx repositories.Tx) error {
				v, err := tx.Sequences().NextValue(ctx, name)
				if err == nil {
					mu.Lock()
					values = append(values, v)
					mu.Unlock()
				}
				return err
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	expected := make([]int64, n)
	for i := range expected {
		expected[i] = int64(i + 1)
	}
	assert.Equal(t, expected, values)
}

func TestStore_ConcurrentNewSequence(t *testing.T) {
	checkConcurrentNewSequence(t, openTestStore(t), "PR", 8)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "mrp.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", sqliteDSN("mrp.db"))
	assert.Equal(t, "mrp.db?_busy_timeout=100&_foreign_keys=on&_journal_mode=WAL", sqliteDSN("mrp.db?_busy_timeout=100"))
}
