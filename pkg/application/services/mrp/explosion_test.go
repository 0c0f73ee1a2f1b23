package mrp

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	testhelpers "github.com/vsinha/mrpplanner/pkg/application/services/testing"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

func newEngine(f *testhelpers.Fixture) *ExplosionEngine {
	return NewExplosionEngine(f.Items, f.Recipes, f.Inventory)
}

func explodeOrder(t *testing.T, f *testhelpers.Fixture, soID string, opts ExplodeOptions) (*dto.Explosion, error) {
	t.Helper()
	so, err := f.SalesOrders.GetSalesOrder(context.Background(), entities.SalesOrderID(soID))
	require.NoError(t, err)
	return newEngine(f).Explode(context.Background(), so.Lines, opts)
}

func assertQty(t *testing.T, expected string, actual entities.Quantity, msgAndArgs ...interface{}) {
	t.Helper()
	want, err := entities.ParseQuantity(expected)
	require.NoError(t, err)
	if !want.Equal(actual) {
		assert.Fail(t, fmt.Sprintf("expected quantity %s, got %s", expected, actual), msgAndArgs...)
	}
}

func TestExplode_Scenario1_Feasible(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			exp, err := explodeOrder(t, testhelpers.BuildScenario1(), "SO-1", ExplodeOptions{Mode: mode})
			require.NoError(t, err)

			assert.Empty(t, exp.MissingRecipes)
			assertQty(t, "10", exp.Requirements["F"].Shortage)
			assertQty(t, "20", exp.Requirements["I"].Shortage)
			assertQty(t, "60", exp.Requirements["R"].Needed)
			assertQty(t, "0", exp.Requirements["R"].Shortage)
			assert.True(t, exp.Feasible)
			assert.Equal(t, []entities.ItemID{"F", "I", "R"}, exp.Order)
			assert.Equal(t, string(mode), exp.Mode)
		})
	}
}

func TestExplode_Scenario2_RawShortage(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			exp, err := explodeOrder(t, testhelpers.BuildScenario2(), "SO-1", ExplodeOptions{Mode: mode})
			require.NoError(t, err)

			assertQty(t, "60", exp.Requirements["R"].Needed)
			assertQty(t, "10", exp.Requirements["R"].Available)
			assertQty(t, "50", exp.Requirements["R"].Shortage)
			assert.False(t, exp.Feasible)
		})
	}
}

func TestExplode_LineShapes(t *testing.T) {
	testCases := []struct {
		name    string
		fixture func() *testhelpers.Fixture
		soID    string
		check   func(t *testing.T, exp *dto.Explosion)
	}{
		{
			name: "zero quantity line still reports missing recipe",
			fixture: func() *testhelpers.Fixture {
				return testhelpers.NewFixture().
					Item("F", entities.FinishedGood).
					Item("G", entities.FinishedGood).
					Item("R", entities.RawMaterial).
					Recipe("F", 1, "R", 1, "G", 0).
					Stock("R", 100).
					SalesOrder("SO-Z", "F", 10)
			},
			soID: "SO-Z",
			check: func(t *testing.T, exp *dto.Explosion) {
				assert.Equal(t, []entities.ItemID{"G"}, exp.MissingRecipes)
				assert.False(t, exp.Feasible)
				require.Contains(t, exp.Requirements, entities.ItemID("G"))
				assertQty(t, "0", exp.Requirements["G"].Needed)
				assertQty(t, "0", exp.Requirements["G"].Shortage)
				assertQty(t, "10", exp.Requirements["R"].Needed)
			},
		},
		{
			name: "item ordered directly and as a component",
			fixture: func() *testhelpers.Fixture {
				return testhelpers.BuildScenario1().SalesOrder("SO-2", "F", 10, "I", 5)
			},
			soID: "SO-2",
			check: func(t *testing.T, exp *dto.Explosion) {
				assert.Empty(t, exp.MissingRecipes)
				assertQty(t, "25", exp.Requirements["I"].Needed)
				assertQty(t, "25", exp.Requirements["I"].Shortage)
				assertQty(t, "75", exp.Requirements["R"].Needed)
				assert.True(t, exp.Feasible)
			},
		},
	}

	for _, tc := range testCases {
		for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
			t.Run(tc.name+"/"+string(mode), func(t *testing.T) {
				exp, err := explodeOrder(t, tc.fixture(), tc.soID, ExplodeOptions{Mode: mode})
				require.NoError(t, err)
				tc.check(t, exp)
			})
		}
	}
}

func TestExplode_Scenario3_MissingRecipe(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			exp, err := explodeOrder(t, testhelpers.BuildScenario3(), "SO-3", ExplodeOptions{Mode: mode})
			require.NoError(t, err)

			assert.Equal(t, []entities.ItemID{"G"}, exp.MissingRecipes)
			assert.False(t, exp.Feasible)
			require.Contains(t, exp.Requirements, entities.ItemID("G"))
			assert.False(t, exp.Requirements["G"].HasRecipe)
			assertQty(t, "5", exp.Requirements["G"].Needed)
		})
	}
}

func TestExplode_SharedComponentModes(t *testing.T) {
	f := testhelpers.BuildSharedComponentData()

	aggregated, err := explodeOrder(t, f, "SO-SHARED", ExplodeOptions{Mode: AggregatedShortage})
	require.NoError(t, err)

	// DOUGH: 2 BREAD x 2 + 8 ROLLS x 1/4 = 6 needed against 3 on hand, netted once
	dough := aggregated.Requirements["DOUGH"]
	assertQty(t, "6", dough.Needed)
	assertQty(t, "3", dough.Shortage)
	assert.Equal(t, 1, dough.Level)
	assertQty(t, "3", aggregated.Requirements["FLOUR"].Needed)
	assertQty(t, "1.5", aggregated.Requirements["WATER"].Needed)
	assertQty(t, "2", aggregated.Requirements["BAG"].Needed)
	assert.True(t, aggregated.Feasible)

	perCall, err := explodeOrder(t, f, "SO-SHARED", ExplodeOptions{Mode: PerCallShortage})
	require.NoError(t, err)

	// Each call sees all 3 DOUGH: 4 - 3 = 1 short, then 2 - 3 = none short
	dough = perCall.Requirements["DOUGH"]
	assertQty(t, "6", dough.Needed)
	assertQty(t, "1", dough.Shortage)
	assertQty(t, "1", perCall.Requirements["FLOUR"].Needed)
}

func TestExplode_DeepSharedComponentIsNettedAfterAllParents(t *testing.T) {
	// X reaches C directly and through B, so C must wait for B in aggregated mode
	f := testhelpers.NewFixture().
		Item("X", entities.FinishedGood).
		Item("B", entities.Intermediate).
		Item("C", entities.Intermediate).
		Item("RAW", entities.RawMaterial).
		Recipe("X", 1, "C", 1, "B", 1).
		Recipe("B", 1, "C", 1).
		Recipe("C", 1, "RAW", 1).
		Stock("C", 1).
		Stock("RAW", 100).
		SalesOrder("SO-X", "X", 2)

	exp, err := explodeOrder(t, f, "SO-X", ExplodeOptions{Mode: AggregatedShortage})
	require.NoError(t, err)

	assertQty(t, "4", exp.Requirements["C"].Needed)
	assertQty(t, "3", exp.Requirements["C"].Shortage)
	assertQty(t, "3", exp.Requirements["RAW"].Needed)
	assert.Equal(t, 2, exp.Requirements["C"].Level, "low-level code is the deepest path")
}

func TestExplode_Reservations(t *testing.T) {
	f := testhelpers.BuildScenario1().Reserve("R", 980)

	without, err := explodeOrder(t, f, "SO-1", ExplodeOptions{})
	require.NoError(t, err)
	assert.True(t, without.Feasible)

	with, err := explodeOrder(t, f, "SO-1", ExplodeOptions{IncludeReservations: true})
	require.NoError(t, err)
	assertQty(t, "20", with.Requirements["R"].Available)
	assertQty(t, "40", with.Requirements["R"].Shortage)
	assert.False(t, with.Feasible)
}

func TestExplode_NegativeAvailabilityIsClamped(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			f := testhelpers.BuildScenario2().Reserve("R", 30)

			exp, err := explodeOrder(t, f, "SO-1", ExplodeOptions{IncludeReservations: true, Mode: mode})
			require.NoError(t, err)

			assertQty(t, "-20", exp.Requirements["R"].Available)
			assertQty(t, "60", exp.Requirements["R"].Shortage, "shortage never exceeds need")
		})
	}
}

func TestExplode_CoveredParentStopsDescent(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			f := testhelpers.BuildScenario1()
			f.Inventory.SetOnHand("F", testhelpers.DefaultLocation, entities.Qty(10))

			exp, err := explodeOrder(t, f, "SO-1", ExplodeOptions{Mode: mode})
			require.NoError(t, err)

			assert.Equal(t, []entities.ItemID{"F"}, exp.Order)
			assertQty(t, "0", exp.Requirements["F"].Shortage)
			assert.True(t, exp.Feasible)
		})
	}
}

func TestExplode_MissingRecipeReportedOnce(t *testing.T) {
	// SAUCE is reached from two parents and from the order itself
	f := testhelpers.NewFixture().
		Item("PIZZA", entities.FinishedGood).
		Item("PASTA", entities.FinishedGood).
		Item("SAUCE", entities.Intermediate).
		Item("SALT", entities.RawMaterial).
		Item("BOX", entities.Packaging).
		Item("TRIM", entities.Scrap).
		Recipe("PIZZA", 1, "SAUCE", 1, "BOX", 1).
		Recipe("PASTA", 1, "SAUCE", 2, "SALT", 1, "TRIM", 1).
		SalesOrder("SO-M", "PIZZA", 1, "PASTA", 1, "SAUCE", 1)

	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			exp, err := explodeOrder(t, f, "SO-M", ExplodeOptions{Mode: mode})
			require.NoError(t, err)

			assert.Equal(t, []entities.ItemID{"SAUCE"}, exp.MissingRecipes)
			assertQty(t, "4", exp.Requirements["SAUCE"].Needed)
			// Buy kinds are never missing, even when short
			assert.True(t, exp.Requirements["BOX"].IsShort())
			assert.True(t, exp.Requirements["SALT"].IsShort())
			assert.True(t, exp.Requirements["TRIM"].IsShort())
			assert.False(t, exp.Feasible)
		})
	}
}

func TestExplode_ConservationLaw(t *testing.T) {
	// 4 output per batch from 3 A and "0.5" B; scaling 10 units
	f := testhelpers.NewFixture().
		Item("OUT", entities.FinishedGood).
		Item("A", entities.RawMaterial).
		Item("B", entities.RawMaterial).
		Recipe("OUT", 4, "A", 3, "B", "0.5").
		SalesOrder("SO-C", "OUT", 10)

	exp, err := explodeOrder(t, f, "SO-C", ExplodeOptions{})
	require.NoError(t, err)

	basis := entities.Qty(4)
	shortage := exp.Requirements["OUT"].Shortage
	assert.True(t, exp.Requirements["A"].Needed.Mul(basis).Equal(entities.Qty(3).Mul(shortage)))
	half, _ := entities.ParseQuantity("0.5")
	assert.True(t, exp.Requirements["B"].Needed.Mul(basis).Equal(half.Mul(shortage)))
	assertQty(t, "7.5", exp.Requirements["A"].Needed)
	assertQty(t, "1.25", exp.Requirements["B"].Needed)
}

func TestExplode_Cycle(t *testing.T) {
	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			_, err := explodeOrder(t, testhelpers.BuildCyclicData(), "SO-CYCLE", ExplodeOptions{Mode: mode})
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CodeCyclicRecipe), "got %v", err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "A,B,A", appErr.Details["path"])
		})
	}
}

func TestExplode_CycleDetectedEvenWhenStockCoversIt(t *testing.T) {
	f := testhelpers.BuildCyclicData().Stock("A", 5)

	_, err := explodeOrder(t, f, "SO-CYCLE", ExplodeOptions{Mode: AggregatedShortage})
	assert.True(t, apperrors.Is(err, apperrors.CodeCyclicRecipe))
}

func TestExplode_InvalidBasis(t *testing.T) {
	f := testhelpers.NewFixture().
		Item("F", entities.FinishedGood).
		Item("R", entities.RawMaterial).
		RawRecipe("F", entities.Qty(0), "R", 1).
		SalesOrder("SO-Z", "F", 1)

	for _, mode := range []ShortageMode{AggregatedShortage, PerCallShortage} {
		t.Run(string(mode), func(t *testing.T) {
			exp, err := explodeOrder(t, f, "SO-Z", ExplodeOptions{Mode: mode})
			assert.Nil(t, exp, "no partial table")
			assert.True(t, apperrors.Is(err, apperrors.CodeConfiguration), "got %v", err)
		})
	}
}

func TestExplode_UnknownItem(t *testing.T) {
	f := testhelpers.NewFixture().
		Item("F", entities.FinishedGood).
		Recipe("F", 1, "GHOST", 1).
		SalesOrder("SO-U", "F", 1)

	_, err := explodeOrder(t, f, "SO-U", ExplodeOptions{})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound), "got %v", err)
}

func TestExplode_UnknownMode(t *testing.T) {
	_, err := explodeOrder(t, testhelpers.BuildScenario1(), "SO-1", ExplodeOptions{Mode: "greedy"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationError))
}

func TestParseShortageMode(t *testing.T) {
	mode, err := ParseShortageMode("")
	require.NoError(t, err)
	assert.Equal(t, AggregatedShortage, mode)

	mode, err = ParseShortageMode("per-call")
	require.NoError(t, err)
	assert.Equal(t, PerCallShortage, mode)

	_, err = ParseShortageMode("PER_CALL")
	assert.Error(t, err)
}
