package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
)

// RecipeRepository provides in-memory recipe storage
type RecipeRepository struct {
	mu       sync.RWMutex
	recipes  []*entities.Recipe
	defaults map[entities.ItemID]*entities.Recipe
}

// NewRecipeRepository creates a new in-memory recipe repository
func NewRecipeRepository(expectedRecipes int) *RecipeRepository {
	return &RecipeRepository{
		recipes:  make([]*entities.Recipe, 0, expectedRecipes),
		defaults: make(map[entities.ItemID]*entities.Recipe, expectedRecipes),
	}
}

// Verify interface compliance
var _ repositories.RecipeRepository = (*RecipeRepository)(nil)

// LoadRecipes loads recipes into the repository
func (r *RecipeRepository) LoadRecipes(recipes []*entities.Recipe) error {
	for _, recipe := range recipes {
		if err := r.AddRecipe(recipe); err != nil {
			return err
		}
	}
	return nil
}

// AddRecipe adds a recipe. A second default recipe for the same output is rejected.
func (r *RecipeRepository) AddRecipe(recipe *entities.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if recipe.IsDefault {
		if existing, exists := r.defaults[recipe.OutputItemID]; exists {
			return fmt.Errorf("item %s already has default recipe %s", recipe.OutputItemID, existing.ID)
		}
		r.defaults[recipe.OutputItemID] = recipe
	}
	r.recipes = append(r.recipes, recipe)
	return nil
}

// GetDefaultRecipe returns the default recipe producing itemID, or nil when none exists
func (r *RecipeRepository) GetDefaultRecipe(ctx context.Context, itemID entities.ItemID) (*entities.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaults[itemID], nil
}

// ListRecipes returns every recipe, default or not
func (r *RecipeRepository) ListRecipes(ctx context.Context) ([]*entities.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Recipe, len(r.recipes))
	copy(out, r.recipes)
	return out, nil
}
