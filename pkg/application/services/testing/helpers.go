package testing

import (
	"fmt"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
)

// DefaultLocation is where fixture stock is held unless stated otherwise
const DefaultLocation = "MAIN"

// Fixture bundles the memory repositories a planner needs
type Fixture struct {
	Items       *memory.ItemRepository
	Recipes     *memory.RecipeRepository
	Inventory   *memory.InventoryRepository
	SalesOrders *memory.SalesOrderRepository
	Store       *memory.Store
}

// NewFixture creates empty repositories
func NewFixture() *Fixture {
	return &Fixture{
		Items:       memory.NewItemRepository(16),
		Recipes:     memory.NewRecipeRepository(16),
		Inventory:   memory.NewInventoryRepository(),
		SalesOrders: memory.NewSalesOrderRepository(),
		Store:       memory.NewStore(),
	}
}

// Item adds an item named after its id - panics on validation error
func (f *Fixture) Item(id string, kind entities.ItemKind) *Fixture {
	item, err := entities.NewItem(entities.ItemID(id), id, "EA", kind)
	if err != nil {
		panic(err)
	}
	if err := f.Items.AddItem(*item); err != nil {
		panic(err)
	}
	return f
}

// Recipe adds a default recipe. Lines alternate input id and quantity:
// Recipe("F", 1, "I", 2) makes 1 F from 2 I.
func (f *Fixture) Recipe(output string, basis int64, lines ...interface{}) *Fixture {
	return f.addRecipe("R-"+output, output, entities.Qty(basis), true, lines...)
}

// RawRecipe adds a default recipe without constructor validation, for corrupt master data
func (f *Fixture) RawRecipe(output string, basis entities.Quantity, lines ...interface{}) *Fixture {
	recipe := &entities.Recipe{
		ID:             entities.RecipeID("R-" + output),
		OutputItemID:   entities.ItemID(output),
		OutputQuantity: basis,
		IsDefault:      true,
		Lines:          mustCreateLines(lines),
	}
	if err := f.Recipes.AddRecipe(recipe); err != nil {
		panic(err)
	}
	return f
}

func (f *Fixture) addRecipe(id, output string, basis entities.Quantity, isDefault bool, lines ...interface{}) *Fixture {
	recipe, err := entities.NewRecipe(entities.RecipeID(id), entities.ItemID(output), basis, isDefault, mustCreateLines(lines))
	if err != nil {
		panic(err)
	}
	if err := f.Recipes.AddRecipe(recipe); err != nil {
		panic(err)
	}
	return f
}

// Stock sets on-hand quantity at the default location
func (f *Fixture) Stock(id string, qty int64) *Fixture {
	f.Inventory.SetOnHand(entities.ItemID(id), DefaultLocation, entities.Qty(qty))
	return f
}

// Reserve adds an active reservation at the default location
func (f *Fixture) Reserve(id string, qty int64) *Fixture {
	f.Inventory.AddReservation(memory.Reservation{
		ItemID:   entities.ItemID(id),
		Location: DefaultLocation,
		Quantity: entities.Qty(qty),
		Active:   true,
	})
	return f
}

// SalesOrder adds an order whose lines alternate item id and quantity
func (f *Fixture) SalesOrder(id string, lines ...interface{}) *Fixture {
	if len(lines)%2 != 0 {
		panic(fmt.Sprintf("sales order %s: lines must be id/quantity pairs", id))
	}
	demands := make([]entities.Demand, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		demands = append(demands, entities.Demand{
			ItemID:   entities.ItemID(lines[i].(string)),
			Quantity: toQuantity(lines[i+1]),
		})
	}
	so, err := entities.NewSalesOrder(entities.SalesOrderID(id), id, DefaultLocation, demands)
	if err != nil {
		panic(err)
	}
	if err := f.SalesOrders.AddSalesOrder(so); err != nil {
		panic(err)
	}
	return f
}

// mustCreateLines is a helper for tests - panics on validation error
func mustCreateLines(args []interface{}) []entities.RecipeLine {
	if len(args)%2 != 0 {
		panic("recipe lines must be id/quantity pairs")
	}
	lines := make([]entities.RecipeLine, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		line, err := entities.NewRecipeLine(entities.ItemID(args[i].(string)), toQuantity(args[i+1]))
		if err != nil {
			panic(err)
		}
		lines = append(lines, *line)
	}
	return lines
}

func toQuantity(v interface{}) entities.Quantity {
	switch q := v.(type) {
	case int:
		return entities.Qty(int64(q))
	case int64:
		return entities.Qty(q)
	case string:
		parsed, err := entities.ParseQuantity(q)
		if err != nil {
			panic(err)
		}
		return parsed
	case entities.Quantity:
		return q
	default:
		panic(fmt.Sprintf("unsupported quantity %T", v))
	}
}

// BuildScenario1 creates F -> 2 I -> 3 R with 1000 R on hand and SO-1 for 10 F.
// Everything can be produced, so the plan is feasible.
func BuildScenario1() *Fixture {
	return buildFlourChain(1000)
}

// BuildScenario2 is BuildScenario1 with only 10 R on hand, leaving a shortage of 50 R
func BuildScenario2() *Fixture {
	return buildFlourChain(10)
}

func buildFlourChain(rawStock int64) *Fixture {
	return NewFixture().
		Item("F", entities.FinishedGood).
		Item("I", entities.Intermediate).
		Item("R", entities.RawMaterial).
		Recipe("F", 1, "I", 2).
		Recipe("I", 1, "R", 3).
		Stock("F", 0).
		Stock("I", 0).
		Stock("R", rawStock).
		SalesOrder("SO-1", "F", 10)
}

// BuildScenario3 creates SO-3 for 5 G where the finished good G has no recipe
func BuildScenario3() *Fixture {
	return NewFixture().
		Item("G", entities.FinishedGood).
		SalesOrder("SO-3", "G", 5)
}

// BuildSharedComponentData creates two finished goods that both consume dough.
//
//	BREAD  (basis 1) -> 2 DOUGH, 1 BAG
//	ROLLS  (basis 4) -> 1 DOUGH
//	DOUGH  (basis 1) -> 1 FLOUR, "0.5" WATER
//
// 3 DOUGH are on hand. SO-SHARED asks for 2 BREAD and 8 ROLLS, so DOUGH is needed 4 + 2.
func BuildSharedComponentData() *Fixture {
	return NewFixture().
		Item("BREAD", entities.FinishedGood).
		Item("ROLLS", entities.FinishedGood).
		Item("DOUGH", entities.WIP).
		Item("FLOUR", entities.RawMaterial).
		Item("WATER", entities.RawMaterial).
		Item("BAG", entities.Packaging).
		Recipe("BREAD", 1, "DOUGH", 2, "BAG", 1).
		Recipe("ROLLS", 4, "DOUGH", 1).
		Recipe("DOUGH", 1, "FLOUR", 1, "WATER", "0.5").
		Stock("DOUGH", 3).
		Stock("FLOUR", 100).
		Stock("WATER", 100).
		Stock("BAG", 100).
		SalesOrder("SO-SHARED", "BREAD", 2, "ROLLS", 8)
}

// BuildCyclicData creates A -> B -> A
func BuildCyclicData() *Fixture {
	return NewFixture().
		Item("A", entities.Intermediate).
		Item("B", entities.Intermediate).
		Recipe("A", 1, "B", 1).
		Recipe("B", 1, "A", 1).
		SalesOrder("SO-CYCLE", "A", 1)
}
