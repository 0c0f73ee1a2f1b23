package repositories

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// RecipeRepository provides access to production recipes
type RecipeRepository interface {
	// GetDefaultRecipe returns the default recipe producing itemID, or nil, nil when none exists.
	GetDefaultRecipe(ctx context.Context, itemID entities.ItemID) (*entities.Recipe, error)
	ListRecipes(ctx context.Context) ([]*entities.Recipe, error)
}
