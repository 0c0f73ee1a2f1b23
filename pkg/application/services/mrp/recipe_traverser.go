package mrp

import (
	"context"
	"fmt"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// RecipeNode provides context information during recipe traversal
type RecipeNode struct {
	ItemID     entities.ItemID
	Item       *entities.Item
	Recipe     *entities.Recipe // nil for bought items
	Quantity   entities.Quantity
	Level      int
	ParentData interface{} // data returned by the parent's VisitNode, nil at the root
}

// RecipeNodeVisitor defines the interface for processing nodes during recipe traversal
type RecipeNodeVisitor interface {
	// VisitNode is called for each node in the recipe tree.
	// Returns data handed to children and whether to continue traversal.
	VisitNode(ctx context.Context, node RecipeNode) (interface{}, bool, error)

	// ChildQuantity decides the quantity to traverse a recipe line with.
	// Returning false skips the line.
	ChildQuantity(
		ctx context.Context,
		node RecipeNode,
		nodeData interface{},
		line entities.RecipeLine,
	) (entities.Quantity, bool, error)

	// ProcessChildren is called after visiting all children
	ProcessChildren(
		ctx context.Context,
		node RecipeNode,
		nodeData interface{},
		childResults []interface{},
	) (interface{}, error)
}

// RecipeTraverser walks default recipes depth-first with an active-path guard
type RecipeTraverser struct {
	catalog *recipeCatalog
}

func newRecipeTraverser(catalog *recipeCatalog) *RecipeTraverser {
	return &RecipeTraverser{catalog: catalog}
}

// Traverse visits itemID and its sub-components. An item that reappears on its own
// ancestor path fails with CYCLIC_RECIPE.
func (rt *RecipeTraverser) Traverse(
	ctx context.Context,
	itemID entities.ItemID,
	quantity entities.Quantity,
	visitor RecipeNodeVisitor,
) (interface{}, error) {
	onPath := make(map[entities.ItemID]bool)
	return rt.traverse(ctx, itemID, quantity, 0, nil, nil, onPath, visitor)
}

func (rt *RecipeTraverser) traverse(
	ctx context.Context,
	itemID entities.ItemID,
	quantity entities.Quantity,
	level int,
	parentData interface{},
	path []entities.ItemID,
	onPath map[entities.ItemID]bool,
	visitor RecipeNodeVisitor,
) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onPath[itemID] {
		return nil, apperrors.ErrCyclicRecipe(cyclePath(path, itemID))
	}

	item, err := rt.catalog.item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	recipe, err := rt.catalog.recipe(ctx, itemID)
	if err != nil {
		return nil, err
	}

	node := RecipeNode{
		ItemID:     itemID,
		Item:       item,
		Recipe:     recipe,
		Quantity:   quantity,
		Level:      level,
		ParentData: parentData,
	}

	nodeData, shouldContinue, err := visitor.VisitNode(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to visit node %s: %w", itemID, err)
	}
	if !shouldContinue || recipe == nil {
		return visitor.ProcessChildren(ctx, node, nodeData, nil)
	}

	onPath[itemID] = true
	defer delete(onPath, itemID)
	path = append(path, itemID)

	var childResults []interface{}
	for _, line := range recipe.Lines {
		childQty, ok, err := visitor.ChildQuantity(ctx, node, nodeData, line)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		childResult, err := rt.traverse(ctx, line.InputItemID, childQty, level+1, nodeData, path, onPath, visitor)
		if err != nil {
			return nil, err
		}
		childResults = append(childResults, childResult)
	}

	return visitor.ProcessChildren(ctx, node, nodeData, childResults)
}
