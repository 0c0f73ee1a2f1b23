package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// RecipeValidator checks the integrity of the whole recipe graph
type RecipeValidator struct{}

// NewRecipeValidator creates a new recipe validator
func NewRecipeValidator() *RecipeValidator {
	return &RecipeValidator{}
}

// ValidationResult contains the results of recipe validation
type ValidationResult struct {
	HasCycles         bool
	CyclePaths        [][]entities.ItemID
	InvalidBases      []entities.RecipeID
	DuplicateDefaults []entities.ItemID
	MissingRecipes    []entities.ItemID
	UnknownItems      []entities.ItemID
	Errors            []string
}

// IsValid reports whether no blocking problem was found
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateRecipes performs comprehensive validation on a catalog of items and recipes.
// Only default recipes take part in cycle detection since planning never uses the others.
func (v *RecipeValidator) ValidateRecipes(items []*entities.Item, recipes []*entities.Recipe) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:        make([][]entities.ItemID, 0),
		InvalidBases:      make([]entities.RecipeID, 0),
		DuplicateDefaults: make([]entities.ItemID, 0),
		MissingRecipes:    make([]entities.ItemID, 0),
		UnknownItems:      make([]entities.ItemID, 0),
		Errors:            make([]string, 0),
	}

	known := make(map[entities.ItemID]*entities.Item, len(items))
	for _, item := range items {
		known[item.ID] = item
	}

	defaults := make(map[entities.ItemID]*entities.Recipe)
	unknown := make(map[entities.ItemID]bool)
	for _, recipe := range recipes {
		if !recipe.HasValidBasis() {
			result.InvalidBases = append(result.InvalidBases, recipe.ID)
			result.Errors = append(result.Errors,
				fmt.Sprintf("recipe %s has non-positive output quantity %s", recipe.ID, recipe.OutputQuantity))
		}
		if recipe.IsDefault {
			if _, exists := defaults[recipe.OutputItemID]; exists {
				result.DuplicateDefaults = append(result.DuplicateDefaults, recipe.OutputItemID)
				result.Errors = append(result.Errors,
					fmt.Sprintf("item %s has more than one default recipe", recipe.OutputItemID))
			} else {
				defaults[recipe.OutputItemID] = recipe
			}
		}

		ids := []entities.ItemID{recipe.OutputItemID}
		for _, line := range recipe.Lines {
			ids = append(ids, line.InputItemID)
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok && !unknown[id] {
				unknown[id] = true
				result.UnknownItems = append(result.UnknownItems, id)
				result.Errors = append(result.Errors, fmt.Sprintf("recipe %s references unknown item %s", recipe.ID, id))
			}
		}
	}

	// Missing recipes are reported but do not make the catalog invalid
	for _, item := range items {
		if item.Kind.ExpectsRecipe() && defaults[item.ID] == nil {
			result.MissingRecipes = append(result.MissingRecipes, item.ID)
		}
	}

	cycles := v.detectCycles(v.buildAdjacencyMap(defaults))
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles
	for _, cycle := range cycles {
		result.Errors = append(result.Errors, fmt.Sprintf("recipe cycle detected: %v", cycle))
	}

	return result
}

// buildAdjacencyMap creates a map of output -> distinct inputs over default recipes
func (v *RecipeValidator) buildAdjacencyMap(defaults map[entities.ItemID]*entities.Recipe) map[entities.ItemID][]entities.ItemID {
	adjacencyMap := make(map[entities.ItemID][]entities.ItemID, len(defaults))

	for output, recipe := range defaults {
		seen := make(map[entities.ItemID]bool)
		children := make([]entities.ItemID, 0, len(recipe.Lines))
		for _, line := range recipe.Lines {
			if !seen[line.InputItemID] {
				seen[line.InputItemID] = true
				children = append(children, line.InputItemID)
			}
		}
		adjacencyMap[output] = children
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the recipe graph
func (v *RecipeValidator) detectCycles(adjacencyMap map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	recursionStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	// Stable starting order keeps reported paths reproducible
	starts := make([]entities.ItemID, 0, len(adjacencyMap))
	for output := range adjacencyMap {
		starts = append(starts, output)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	for _, start := range starts {
		if !visited[start] {
			v.dfsDetectCycle(start, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *RecipeValidator) dfsDetectCycle(
	current entities.ItemID,
	adjacencyMap map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	recursionStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, id := range path {
				if id == child {
					cycle := make([]entities.ItemID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child)
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}
