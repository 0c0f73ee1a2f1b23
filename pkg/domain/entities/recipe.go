package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecipeID represents a unique recipe identifier
type RecipeID string

// RecipeLine represents a single input of a recipe, expressed per output basis
type RecipeLine struct {
	InputItemID ItemID
	Quantity    Quantity
}

// NewRecipeLine creates a validated RecipeLine. A zero quantity is legal.
func NewRecipeLine(inputItemID ItemID, quantity Quantity) (*RecipeLine, error) {
	if string(inputItemID) == "" {
		return nil, fmt.Errorf("input item id cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("line quantity cannot be negative, got %s", quantity)
	}
	return &RecipeLine{
		InputItemID: inputItemID,
		Quantity:    quantity,
	}, nil
}

// Recipe is a production formula: OutputQuantity units of OutputItemID are made
// from the listed lines.
type Recipe struct {
	ID             RecipeID
	OutputItemID   ItemID
	OutputQuantity Quantity
	IsDefault      bool
	Lines          []RecipeLine
}

// NewRecipe creates a validated Recipe
func NewRecipe(id RecipeID, outputItemID ItemID, outputQuantity Quantity, isDefault bool, lines []RecipeLine) (*Recipe, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("recipe id cannot be empty")
	}
	if string(outputItemID) == "" {
		return nil, fmt.Errorf("output item id cannot be empty")
	}
	if !outputQuantity.IsPositive() {
		return nil, fmt.Errorf("output quantity must be positive, got %s", outputQuantity)
	}
	for _, line := range lines {
		if line.InputItemID == outputItemID {
			return nil, fmt.Errorf("recipe %s cannot consume its own output %s", id, outputItemID)
		}
	}
	return &Recipe{
		ID:             id,
		OutputItemID:   outputItemID,
		OutputQuantity: outputQuantity,
		IsDefault:      isDefault,
		Lines:          lines,
	}, nil
}

// HasValidBasis reports whether the output basis can be used as a scaling denominator
func (r *Recipe) HasValidBasis() bool {
	return r.OutputQuantity.IsPositive()
}

// Ratio returns demand / OutputQuantity. Callers must check HasValidBasis first.
func (r *Recipe) Ratio(demand Quantity) Quantity {
	return demand.Div(r.OutputQuantity)
}

// ScaleLine returns the input required from line to produce demand units of output
func (r *Recipe) ScaleLine(line RecipeLine, demand Quantity) Quantity {
	if demand.IsZero() || line.Quantity.IsZero() {
		return decimal.Zero
	}
	return line.Quantity.Mul(demand).Div(r.OutputQuantity)
}
