package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

func TestItemRepository_GetItem(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(2)

	require.NoError(t, repo.AddItem(entities.Item{ID: "FLOUR", Name: "Flour", Unit: "KG", Kind: entities.RawMaterial}))
	assert.Error(t, repo.AddItem(entities.Item{ID: "FLOUR", Name: "Again", Unit: "KG", Kind: entities.RawMaterial}))

	item, err := repo.GetItem(ctx, "FLOUR")
	require.NoError(t, err)
	assert.Equal(t, "Flour", item.Name)

	_, err = repo.GetItem(ctx, "SUGAR")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRecipeRepository_SingleDefaultPerItem(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipeRepository(2)

	first := &entities.Recipe{ID: "R1", OutputItemID: "BREAD", OutputQuantity: entities.Qty(1), IsDefault: true}
	alternate := &entities.Recipe{ID: "R2", OutputItemID: "BREAD", OutputQuantity: entities.Qty(1)}
	second := &entities.Recipe{ID: "R3", OutputItemID: "BREAD", OutputQuantity: entities.Qty(1), IsDefault: true}

	require.NoError(t, repo.AddRecipe(first))
	require.NoError(t, repo.AddRecipe(alternate))
	assert.Error(t, repo.AddRecipe(second))

	recipe, err := repo.GetDefaultRecipe(ctx, "BREAD")
	require.NoError(t, err)
	assert.Equal(t, entities.RecipeID("R1"), recipe.ID)

	none, err := repo.GetDefaultRecipe(ctx, "FLOUR")
	require.NoError(t, err)
	assert.Nil(t, none)

	all, err := repo.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInventoryRepository_SumsAcrossLocations(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()

	repo.SetOnHand("FLOUR", "MAIN", entities.Qty(10))
	repo.SetOnHand("FLOUR", "BACKUP", entities.Qty(5))
	repo.SetOnHand("SUGAR", "MAIN", entities.Qty(100))
	repo.AddReservation(Reservation{ItemID: "FLOUR", Location: "MAIN", Quantity: entities.Qty(3), Active: true})
	repo.AddReservation(Reservation{ItemID: "FLOUR", Location: "BACKUP", Quantity: entities.Qty(2), Active: false})

	onHand, err := repo.GetOnHandQuantity(ctx, "FLOUR")
	require.NoError(t, err)
	assert.True(t, onHand.Equal(entities.Qty(15)), "on hand %s", onHand)

	reserved, err := repo.GetActiveReservedQuantity(ctx, "FLOUR")
	require.NoError(t, err)
	assert.True(t, reserved.Equal(entities.Qty(3)), "reserved %s", reserved)

	unknown, err := repo.GetOnHandQuantity(ctx, "SALT")
	require.NoError(t, err)
	assert.True(t, unknown.IsZero())
}

func TestSalesOrderRepository_GetSalesOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSalesOrderRepository()

	so, err := entities.NewSalesOrder("SO-1", "SO-1", "PLANT",
		[]entities.Demand{{ItemID: "BREAD", Quantity: entities.Qty(10)}})
	require.NoError(t, err)
	require.NoError(t, repo.AddSalesOrder(so))
	assert.Error(t, repo.AddSalesOrder(so))

	loaded, err := repo.GetSalesOrder(ctx, "SO-1")
	require.NoError(t, err)
	assert.Equal(t, "PLANT", loaded.SourceLocation)
	assert.Equal(t, []entities.SalesOrderID{"SO-1"}, repo.IDs())

	_, err = repo.GetSalesOrder(ctx, "SO-404")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}
