package mrp

import (
	"context"
	"fmt"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// recipeCatalog memoizes item and default-recipe lookups for the duration of one call.
// It is not safe for concurrent use.
type recipeCatalog struct {
	itemRepo   repositories.ItemRepository
	recipeRepo repositories.RecipeRepository

	items   map[entities.ItemID]*entities.Item
	recipes map[entities.ItemID]*entities.Recipe
	loaded  map[entities.ItemID]bool
}

func newRecipeCatalog(itemRepo repositories.ItemRepository, recipeRepo repositories.RecipeRepository) *recipeCatalog {
	return &recipeCatalog{
		itemRepo:   itemRepo,
		recipeRepo: recipeRepo,
		items:      make(map[entities.ItemID]*entities.Item),
		recipes:    make(map[entities.ItemID]*entities.Recipe),
		loaded:     make(map[entities.ItemID]bool),
	}
}

// item returns the item master record, failing with NOT_FOUND for unknown ids
func (c *recipeCatalog) item(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	if item, ok := c.items[id]; ok {
		return item, nil
	}
	item, err := c.itemRepo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	if item == nil {
		return nil, apperrors.ErrNotFound("item", string(id))
	}
	c.items[id] = item
	return item, nil
}

// recipe returns the default recipe for id or nil. A recipe whose output basis
// cannot be used for scaling fails with CONFIGURATION_ERROR.
func (c *recipeCatalog) recipe(ctx context.Context, id entities.ItemID) (*entities.Recipe, error) {
	if c.loaded[id] {
		return c.recipes[id], nil
	}
	recipe, err := c.recipeRepo.GetDefaultRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get default recipe for %s: %w", id, err)
	}
	if recipe != nil && !recipe.HasValidBasis() {
		return nil, apperrors.ErrConfiguration(
			fmt.Sprintf("recipe %s for item %s has non-positive output quantity %s", recipe.ID, id, recipe.OutputQuantity),
		).WithDetail("recipe_id", string(recipe.ID))
	}
	c.loaded[id] = true
	c.recipes[id] = recipe
	return recipe, nil
}

// cyclePath renders the portion of path starting at the first occurrence of repeated,
// closed with repeated itself.
func cyclePath(path []entities.ItemID, repeated entities.ItemID) []string {
	start := 0
	for i, id := range path {
		if id == repeated {
			start = i
			break
		}
	}
	out := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		out = append(out, string(id))
	}
	return append(out, string(repeated))
}
