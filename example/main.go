package main

import (
	"context"
	"fmt"

	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/lock"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// Create repositories
	items := memory.NewItemRepository(6)
	recipes := memory.NewRecipeRepository(3)
	inventory := memory.NewInventoryRepository()
	salesOrders := memory.NewSalesOrderRepository()

	// Set up a bakery where bread and rolls share one dough
	if err := setupBakery(items, recipes, inventory, salesOrders); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	fmt.Println("Simulating SO-BAKERY: 2 BREAD and 8 ROLLS")
	fmt.Println()

	for _, mode := range []mrp.ShortageMode{mrp.AggregatedShortage, mrp.PerCallShortage} {
		cfg := mrp.DefaultPlannerConfig()
		cfg.Mode = mode
		planner, err := mrp.NewPlanner(salesOrders, items, recipes, inventory, memory.NewStore(), lock.NewMemoryLocker(), nil, cfg)
		if err != nil {
			fmt.Printf("planner setup failed: %v\n", err)
			return
		}

		sim, err := planner.Simulate(ctx, "SO-BAKERY", mrp.SimulateOptions{IncludeReservations: true})
		if err != nil {
			fmt.Printf("simulation failed: %v\n", err)
			return
		}
		fmt.Printf("%s netting (feasible=%t):\n", mode, sim.Feasible)
		for _, req := range sim.Requirements {
			fmt.Printf("  %-6s need %-5s available %-5s short %s\n",
				req.ItemID, req.Needed, req.Available, req.Shortage)
		}
		fmt.Println()
	}

	planner, err := mrp.NewPlanner(salesOrders, items, recipes, inventory, memory.NewStore(), lock.NewMemoryLocker(), nil, mrp.DefaultPlannerConfig())
	if err != nil {
		fmt.Printf("planner setup failed: %v\n", err)
		return
	}
	plan, err := planner.Plan(ctx, "SO-BAKERY", "example")
	if err != nil {
		fmt.Printf("plan failed: %v\n", err)
		return
	}

	fmt.Printf("Plan committed with status %s\n", plan.GlobalStatus)
	for _, wo := range plan.WorkOrders {
		fmt.Printf("  %s %-6s %s\n", wo.Number, wo.ItemID, wo.PlannedQuantity)
	}
	if pr := plan.PurchaseRequisition; pr != nil {
		for _, line := range pr.Lines {
			fmt.Printf("  %s buy %s %s\n", pr.Number, line.Quantity, line.ItemID)
		}
	}
}

func setupBakery(
	items *memory.ItemRepository,
	recipes *memory.RecipeRepository,
	inventory *memory.InventoryRepository,
	salesOrders *memory.SalesOrderRepository,
) error {
	catalog := []struct {
		id   entities.ItemID
		name string
		unit string
		kind entities.ItemKind
	}{
		{"BREAD", "Sandwich loaf", "EA", entities.FinishedGood},
		{"ROLLS", "Dinner rolls", "EA", entities.FinishedGood},
		{"DOUGH", "Bread dough", "KG", entities.Intermediate},
		{"FLOUR", "Wheat flour", "KG", entities.RawMaterial},
		{"WATER", "Water", "L", entities.RawMaterial},
		{"BAG", "Paper bag", "EA", entities.Packaging},
	}
	for _, c := range catalog {
		item, err := entities.NewItem(c.id, c.name, c.unit, c.kind)
		if err != nil {
			return err
		}
		if err := items.AddItem(*item); err != nil {
			return err
		}
	}

	half, _ := entities.ParseQuantity("0.5")
	formulas := []struct {
		id     entities.RecipeID
		output entities.ItemID
		basis  int64
		lines  []entities.RecipeLine
	}{
		{"R-BREAD", "BREAD", 1, []entities.RecipeLine{{InputItemID: "DOUGH", Quantity: entities.Qty(2)}, {InputItemID: "BAG", Quantity: entities.Qty(1)}}},
		{"R-ROLLS", "ROLLS", 4, []entities.RecipeLine{{InputItemID: "DOUGH", Quantity: entities.Qty(1)}}},
		{"R-DOUGH", "DOUGH", 1, []entities.RecipeLine{{InputItemID: "FLOUR", Quantity: entities.Qty(1)}, {InputItemID: "WATER", Quantity: half}}},
	}
	for _, f := range formulas {
		recipe, err := entities.NewRecipe(f.id, f.output, entities.Qty(f.basis), true, f.lines)
		if err != nil {
			return err
		}
		if err := recipes.AddRecipe(recipe); err != nil {
			return err
		}
	}

	inventory.SetOnHand("DOUGH", "MAIN", entities.Qty(3))
	inventory.SetOnHand("FLOUR", "MAIN", entities.Qty(2))
	inventory.SetOnHand("WATER", "MAIN", entities.Qty(100))
	inventory.SetOnHand("BAG", "MAIN", entities.Qty(100))
	inventory.AddReservation(memory.Reservation{ItemID: "BAG", Location: "MAIN", Quantity: entities.Qty(99), Active: true})

	so, err := entities.NewSalesOrder("SO-BAKERY", "SO-BAKERY", "MAIN", []entities.Demand{
		{ItemID: "BREAD", Quantity: entities.Qty(2)},
		{ItemID: "ROLLS", Quantity: entities.Qty(8)},
	})
	if err != nil {
		return err
	}
	return salesOrders.AddSalesOrder(so)
}
