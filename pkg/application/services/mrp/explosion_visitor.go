package mrp

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// perCallVisitor implements RecipeNodeVisitor for the per-call explosion.
// Each visit nets only the quantity of that call against the item's full availability.
type perCallVisitor struct {
	result  *dto.Explosion
	stock   *stockLedger
	missing *missingSet
}

// perCallNodeData holds the shortage found by one call
type perCallNodeData struct {
	shortage entities.Quantity
}

func newPerCallVisitor(result *dto.Explosion, stock *stockLedger) *perCallVisitor {
	return &perCallVisitor{
		result:  result,
		stock:   stock,
		missing: newMissingSet(),
	}
}

// VisitNode accumulates gross need and, for producible items, the call's own shortage
func (v *perCallVisitor) VisitNode(ctx context.Context, node RecipeNode) (interface{}, bool, error) {
	_, seen := v.result.Requirements[node.ItemID]
	req := v.result.Requirement(node.ItemID, node.Item.Kind, node.Recipe != nil)
	if !seen {
		req.Level = node.Level
	}
	req.Needed = req.Needed.Add(node.Quantity)

	if node.Recipe == nil {
		if node.Item.Kind.ExpectsRecipe() {
			v.missing.add(node.ItemID)
		}
		return nil, false, nil
	}

	available, err := v.stock.available(ctx, node.ItemID)
	if err != nil {
		return nil, false, err
	}
	shortage := netShortage(node.Quantity, available)
	req.Available = available
	req.Shortage = req.Shortage.Add(shortage)

	return &perCallNodeData{shortage: shortage}, shortage.IsPositive(), nil
}

// ChildQuantity scales the line by this call's shortage. Zero quantities still recurse
// so an input without a recipe is recorded and reported.
func (v *perCallVisitor) ChildQuantity(
	ctx context.Context,
	node RecipeNode,
	nodeData interface{},
	line entities.RecipeLine,
) (entities.Quantity, bool, error) {
	data := nodeData.(*perCallNodeData)
	return node.Recipe.ScaleLine(line, data.shortage), true, nil
}

// ProcessChildren has nothing to combine; the table is the result
func (v *perCallVisitor) ProcessChildren(
	ctx context.Context,
	node RecipeNode,
	nodeData interface{},
	childResults []interface{},
) (interface{}, error) {
	return nil, nil
}
