package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemID represents a unique item identifier
type ItemID string

// Quantity represents an exact decimal quantity in the item's unit of measure
type Quantity = decimal.Decimal

// Qty builds a Quantity from an integer
func Qty(v int64) Quantity {
	return decimal.NewFromInt(v)
}

// ParseQuantity parses a decimal quantity string such as "2.5"
func ParseQuantity(s string) (Quantity, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return q, nil
}

// ItemKind classifies an item for planning purposes
type ItemKind string

const (
	RawMaterial  ItemKind = "RAW_MATERIAL"
	Packaging    ItemKind = "PACKAGING"
	Intermediate ItemKind = "INTERMEDIATE"
	WIP          ItemKind = "WIP"
	FinishedGood ItemKind = "FINISHED_GOOD"
	Scrap        ItemKind = "SCRAP"
)

// ExpectsRecipe reports whether items of this kind should be produced from a recipe.
// Raw materials, packaging and scrap are buy/leaf items by definition.
func (k ItemKind) ExpectsRecipe() bool {
	switch k {
	case Intermediate, WIP, FinishedGood:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the known kinds
func (k ItemKind) Valid() bool {
	switch k {
	case RawMaterial, Packaging, Intermediate, WIP, FinishedGood, Scrap:
		return true
	default:
		return false
	}
}

// ParseItemKind converts a string into an ItemKind
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind: %s", s)
	}
	return k, nil
}

// Item represents a producible or purchasable thing
type Item struct {
	ID   ItemID
	Name string
	Unit string
	Kind ItemKind
}

// NewItem creates a validated Item
func NewItem(id ItemID, name, unit string, kind ItemKind) (*Item, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("item name cannot be empty")
	}
	if unit == "" {
		return nil, fmt.Errorf("unit of measure cannot be empty")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind: %s", kind)
	}
	return &Item{
		ID:   id,
		Name: name,
		Unit: unit,
		Kind: kind,
	}, nil
}
