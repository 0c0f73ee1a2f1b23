package mrp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
)

func explosionWith(reqs ...entities.NetRequirement) *dto.Explosion {
	exp := dto.NewExplosion(string(AggregatedShortage))
	for _, r := range reqs {
		req := exp.Requirement(r.ItemID, r.Kind, r.HasRecipe)
		req.Needed = r.Needed
		req.Shortage = r.Shortage
	}
	return exp
}

func TestBuyShortages(t *testing.T) {
	exp := explosionWith(
		entities.NetRequirement{ItemID: "F", Kind: entities.FinishedGood, HasRecipe: true, Shortage: entities.Qty(10)},
		entities.NetRequirement{ItemID: "SAUCE", Kind: entities.Intermediate, Shortage: entities.Qty(4)},
		entities.NetRequirement{ItemID: "FLOUR", Kind: entities.RawMaterial, Shortage: entities.Qty(7)},
		entities.NetRequirement{ItemID: "SUGAR", Kind: entities.RawMaterial},
		entities.NetRequirement{ItemID: "BOX", Kind: entities.Packaging, Shortage: entities.Qty(2)},
	)

	var ids []entities.ItemID
	for _, req := range BuyShortages(exp) {
		ids = append(ids, req.ItemID)
	}
	assert.Equal(t, []entities.ItemID{"FLOUR", "BOX"}, ids)
}

func TestProcurementBridge_NothingToBuy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	numbers, err := services.NewOrderNumberFormat("PR", 6)
	require.NoError(t, err)
	bridge := NewProcurementBridge(numbers)

	so, err := entities.NewSalesOrder("SO-1", "SO-1", "MAIN",
		[]entities.Demand{{ItemID: "F", Quantity: entities.Qty(1)}})
	require.NoError(t, err)

	exp := explosionWith(
		entities.NetRequirement{ItemID: "SAUCE", Kind: entities.Intermediate, Shortage: entities.Qty(4)},
	)

	err = store.WithTransaction(ctx, func(tx repositories.Tx) error {
		requisition, err := bridge.Bridge(ctx, tx, so, exp, "buyer")
		assert.Nil(t, requisition)
		return err
	})
	require.NoError(t, err)

	_, requisitions, _ := store.Counts()
	assert.Zero(t, requisitions)
}

func TestPlanWideStatus(t *testing.T) {
	exp := dto.NewExplosion(string(AggregatedShortage))
	exp.Feasible = true
	assert.Equal(t, entities.StatusReady, PlanWideStatus(exp))

	exp.Feasible = false
	assert.Equal(t, entities.StatusWaitingOnMaterial, PlanWideStatus(exp))
}
