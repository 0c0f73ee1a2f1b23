package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
)

// Scenario file names inside a scenario directory
const (
	ItemsFile       = "items.csv"
	RecipesFile     = "recipes.csv"
	InventoryFile   = "inventory.csv"
	SalesOrdersFile = "sales_orders.csv"
)

// StockRecord is one inventory row: on hand plus active reservations at a location
type StockRecord struct {
	ItemID   entities.ItemID
	Location string
	OnHand   entities.Quantity
	Reserved entities.Quantity
}

// Scenario is the master data of one planning scenario
type Scenario struct {
	Items       []*entities.Item
	Recipes     []*entities.Recipe
	Stock       []StockRecord
	SalesOrders []*entities.SalesOrder
}

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads items, recipes, inventory and sales orders from dir.
// The inventory file is optional.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	items, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	recipes, err := l.LoadRecipes(filepath.Join(dir, RecipesFile))
	if err != nil {
		return nil, err
	}

	var stock []StockRecord
	inventoryPath := filepath.Join(dir, InventoryFile)
	if _, statErr := os.Stat(inventoryPath); statErr == nil {
		if stock, err = l.LoadInventory(inventoryPath); err != nil {
			return nil, err
		}
	}

	orders, err := l.LoadSalesOrders(filepath.Join(dir, SalesOrdersFile))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("dir", dir).
		Int("items", len(items)).
		Int("recipes", len(recipes)).
		Int("stock_rows", len(stock)).
		Int("sales_orders", len(orders)).
		Msg("scenario loaded")

	return &Scenario{Items: items, Recipes: recipes, Stock: stock, SalesOrders: orders}, nil
}

// LoadItems loads items from a CSV file
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", []string{"item_id", "name", "unit", "kind"})
	if err != nil {
		return nil, err
	}

	items := make([]*entities.Item, 0, len(records))
	for i, record := range records {
		kind, err := entities.ParseItemKind(strings.ToUpper(strings.TrimSpace(record[3])))
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		item, err := entities.NewItem(entities.ItemID(record[0]), record[1], record[2], kind)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadRecipes loads recipes from a CSV file with one row per recipe line.
// Consecutive or scattered rows sharing a recipe_id form one recipe; a row with
// empty input columns declares a recipe without lines. The output basis is not
// checked here so that a bad basis reaches the validator and the planner.
func (l *Loader) LoadRecipes(filename string) ([]*entities.Recipe, error) {
	expectedHeader := []string{"recipe_id", "output_item_id", "output_quantity", "is_default", "input_item_id", "input_quantity"}
	records, err := readRecords(filename, "recipes", expectedHeader)
	if err != nil {
		return nil, err
	}

	byID := make(map[entities.RecipeID]*entities.Recipe)
	recipes := make([]*entities.Recipe, 0)
	for i, record := range records {
		row := i + 2
		id := entities.RecipeID(record[0])
		if id == "" {
			return nil, fmt.Errorf("recipes CSV row %d: recipe id cannot be empty", row)
		}

		recipe, seen := byID[id]
		if !seen {
			basis, err := entities.ParseQuantity(record[2])
			if err != nil {
				return nil, fmt.Errorf("recipes CSV row %d: %w", row, err)
			}
			isDefault, err := strconv.ParseBool(record[3])
			if err != nil {
				return nil, fmt.Errorf("recipes CSV row %d: invalid is_default: %s", row, record[3])
			}
			if record[1] == "" {
				return nil, fmt.Errorf("recipes CSV row %d: output item id cannot be empty", row)
			}
			recipe = &entities.Recipe{
				ID:             id,
				OutputItemID:   entities.ItemID(record[1]),
				OutputQuantity: basis,
				IsDefault:      isDefault,
				Lines:          make([]entities.RecipeLine, 0),
			}
			byID[id] = recipe
			recipes = append(recipes, recipe)
		} else if entities.ItemID(record[1]) != recipe.OutputItemID {
			return nil, fmt.Errorf("recipes CSV row %d: recipe %s already produces %s", row, id, recipe.OutputItemID)
		}

		if record[4] == "" && record[5] == "" {
			continue
		}
		qty, err := entities.ParseQuantity(record[5])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", row, err)
		}
		line, err := entities.NewRecipeLine(entities.ItemID(record[4]), qty)
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", row, err)
		}
		if line.InputItemID == recipe.OutputItemID {
			return nil, fmt.Errorf("recipes CSV row %d: recipe %s cannot consume its own output %s", row, id, recipe.OutputItemID)
		}
		recipe.Lines = append(recipe.Lines, *line)
	}

	return recipes, nil
}

// LoadInventory loads on-hand and reserved quantities from a CSV file
func (l *Loader) LoadInventory(filename string) ([]StockRecord, error) {
	records, err := readRecords(filename, "inventory", []string{"item_id", "location", "on_hand", "reserved"})
	if err != nil {
		return nil, err
	}

	stock := make([]StockRecord, 0, len(records))
	for i, record := range records {
		onHand, err := entities.ParseQuantity(record[2])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		reserved := entities.Qty(0)
		if record[3] != "" {
			if reserved, err = entities.ParseQuantity(record[3]); err != nil {
				return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
			}
		}
		if onHand.IsNegative() || reserved.IsNegative() {
			return nil, fmt.Errorf("inventory CSV row %d: quantities cannot be negative", i+2)
		}
		stock = append(stock, StockRecord{
			ItemID:   entities.ItemID(record[0]),
			Location: record[1],
			OnHand:   onHand,
			Reserved: reserved,
		})
	}

	return stock, nil
}

// LoadSalesOrders loads sales orders from a CSV file with one row per order line
func (l *Loader) LoadSalesOrders(filename string) ([]*entities.SalesOrder, error) {
	expectedHeader := []string{"sales_order_id", "number", "location", "item_id", "quantity"}
	records, err := readRecords(filename, "sales orders", expectedHeader)
	if err != nil {
		return nil, err
	}

	byID := make(map[entities.SalesOrderID]*entities.SalesOrder)
	orders := make([]*entities.SalesOrder, 0)
	for i, record := range records {
		qty, err := entities.ParseQuantity(record[4])
		if err != nil {
			return nil, fmt.Errorf("sales orders CSV row %d: %w", i+2, err)
		}
		line, err := entities.NewDemand(entities.ItemID(record[3]), qty)
		if err != nil {
			return nil, fmt.Errorf("sales orders CSV row %d: %w", i+2, err)
		}

		id := entities.SalesOrderID(record[0])
		if so, seen := byID[id]; seen {
			so.Lines = append(so.Lines, *line)
			continue
		}
		so, err := entities.NewSalesOrder(id, record[1], record[2], []entities.Demand{*line})
		if err != nil {
			return nil, fmt.Errorf("sales orders CSV row %d: %w", i+2, err)
		}
		byID[id] = so
		orders = append(orders, so)
	}

	return orders, nil
}

// Validate runs the recipe graph validator over the scenario catalog
func (s *Scenario) Validate() *services.ValidationResult {
	return services.NewRecipeValidator().ValidateRecipes(s.Items, s.Recipes)
}

// MemoryRepositories holds in-memory master data repositories filled from a scenario
type MemoryRepositories struct {
	Items       *memory.ItemRepository
	Recipes     *memory.RecipeRepository
	Inventory   *memory.InventoryRepository
	SalesOrders *memory.SalesOrderRepository
}

// Memory loads the scenario into fresh in-memory repositories
func (s *Scenario) Memory() (*MemoryRepositories, error) {
	repos := &MemoryRepositories{
		Items:       memory.NewItemRepository(len(s.Items)),
		Recipes:     memory.NewRecipeRepository(len(s.Recipes)),
		Inventory:   memory.NewInventoryRepository(),
		SalesOrders: memory.NewSalesOrderRepository(),
	}
	if err := repos.Items.LoadItems(s.Items); err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if err := repos.Recipes.LoadRecipes(s.Recipes); err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	for _, row := range s.Stock {
		repos.Inventory.SetOnHand(row.ItemID, row.Location, row.OnHand)
		if row.Reserved.IsPositive() {
			repos.Inventory.AddReservation(memory.Reservation{
				ItemID:   row.ItemID,
				Location: row.Location,
				Quantity: row.Reserved,
				Active:   true,
			})
		}
	}
	if err := repos.SalesOrders.LoadSalesOrders(s.SalesOrders); err != nil {
		return nil, fmt.Errorf("failed to load sales orders: %w", err)
	}
	return repos, nil
}

// MasterDataWriter persists master data. The relational store implements it.
type MasterDataWriter interface {
	SaveItem(ctx context.Context, item *entities.Item) error
	SaveRecipe(ctx context.Context, recipe *entities.Recipe) error
	SetOnHand(ctx context.Context, itemID entities.ItemID, location string, qty entities.Quantity) error
	AddReservation(ctx context.Context, itemID entities.ItemID, location string, qty entities.Quantity, active bool) error
	SaveSalesOrder(ctx context.Context, so *entities.SalesOrder) error
}

// Seed writes the scenario through w. Items go first so recipe and order rows can reference them.
func (s *Scenario) Seed(ctx context.Context, w MasterDataWriter) error {
	for _, item := range s.Items {
		if err := w.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("failed to seed item %s: %w", item.ID, err)
		}
	}
	for _, recipe := range s.Recipes {
		if err := w.SaveRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("failed to seed recipe %s: %w", recipe.ID, err)
		}
	}
	for _, row := range s.Stock {
		if err := w.SetOnHand(ctx, row.ItemID, row.Location, row.OnHand); err != nil {
			return fmt.Errorf("failed to seed stock for %s: %w", row.ItemID, err)
		}
		if row.Reserved.IsPositive() {
			if err := w.AddReservation(ctx, row.ItemID, row.Location, row.Reserved, true); err != nil {
				return fmt.Errorf("failed to seed reservation for %s: %w", row.ItemID, err)
			}
		}
	}
	for _, so := range s.SalesOrders {
		if err := w.SaveSalesOrder(ctx, so); err != nil {
			return fmt.Errorf("failed to seed sales order %s: %w", so.ID, err)
		}
	}
	log.Info().Int("items", len(s.Items)).Int("sales_orders", len(s.SalesOrders)).Msg("scenario seeded")
	return nil
}

// readRecords opens filename, checks the header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}
