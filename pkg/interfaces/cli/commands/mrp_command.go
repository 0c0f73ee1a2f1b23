package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/events"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/lock"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpplanner/pkg/interfaces/cli/output"
)

// Run modes
const (
	ModeSimulate = "simulate"
	ModePlan     = "plan"
)

// Config holds configuration for the MRP command
type Config struct {
	ScenarioDir         string
	SalesOrder          string
	Mode                string
	ShortageMode        string
	IncludeReservations bool
	UserID              string
	OutputDir           string
	Format              string
	Validate            bool
	Verbose             bool
	Help                bool
}

// MRPCommand loads a CSV scenario and simulates or plans one of its sales orders
type MRPCommand struct {
	config Config
	out    io.Writer
}

// NewMRPCommand creates a new MRP command with the given configuration
func NewMRPCommand(config Config) *MRPCommand {
	return &MRPCommand{
		config: config,
		out:    os.Stdout,
	}
}

// WithOutput redirects everything the command prints
func (c *MRPCommand) WithOutput(w io.Writer) *MRPCommand {
	c.out = w
	return c
}

// Execute runs the MRP command
func (c *MRPCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	scenario, err := csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "Scenario %s: %d items, %d recipes, %d stock rows, %d sales orders\n\n",
			c.config.ScenarioDir, len(scenario.Items), len(scenario.Recipes), len(scenario.Stock), len(scenario.SalesOrders))
	}

	if c.config.Validate {
		result := scenario.Validate()
		output.WriteValidation(c.out, result)
		if !result.IsValid() {
			return fmt.Errorf("recipe validation failed with %d problem(s)", len(result.Errors))
		}
		if c.config.SalesOrder == "" {
			return nil
		}
	}

	repos, err := scenario.Memory()
	if err != nil {
		return err
	}

	plannerConfig := mrp.DefaultPlannerConfig()
	if plannerConfig.Mode, err = mrp.ParseShortageMode(c.config.ShortageMode); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	eventStore := events.NewMemoryEventStore()
	if c.config.Verbose {
		audit := events.NewLogHandler(zerolog.New(c.out).With().Str("source", "audit").Logger())
		if err := eventStore.Subscribe(events.AllPlanEventTypes, audit); err != nil {
			return err
		}
	}

	planner, err := mrp.NewPlanner(
		repos.SalesOrders,
		repos.Items,
		repos.Recipes,
		repos.Inventory,
		memory.NewStore(),
		lock.NewMemoryLocker(),
		eventStore,
		plannerConfig,
	)
	if err != nil {
		return err
	}

	salesOrderID := entities.SalesOrderID(c.config.SalesOrder)
	startTime := time.Now()
	var report output.Report
	switch c.config.Mode {
	case ModeSimulate:
		report.Simulation, err = planner.Simulate(ctx, salesOrderID, mrp.SimulateOptions{
			IncludeReservations: c.config.IncludeReservations,
		})
	case ModePlan:
		report.Plan, err = planner.Plan(ctx, salesOrderID, c.config.UserID)
	}
	if err != nil {
		return fmt.Errorf("%s failed for %s: %w", c.config.Mode, salesOrderID, err)
	}

	return output.Generate(c.out, report, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   time.Since(startTime),
		Scenario:  c.config.ScenarioDir,
	})
}

// validateInputs validates the command configuration
func (c *MRPCommand) validateInputs() error {
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify -scenario directory")
	}
	if c.config.SalesOrder == "" && !c.config.Validate {
		return fmt.Errorf("must specify -sales-order")
	}
	if c.config.Mode != ModeSimulate && c.config.Mode != ModePlan {
		return fmt.Errorf("unknown mode %q (expected simulate or plan)", c.config.Mode)
	}
	if c.config.Mode == ModePlan && c.config.UserID == "" {
		return fmt.Errorf("plan mode requires -user")
	}
	return nil
}

// showHelp displays the help message
func (c *MRPCommand) showHelp() {
	fmt.Fprintf(c.out, `MRP Planner CLI - sales-order driven material requirements planning

USAGE:
    mrp -scenario <directory> -sales-order <id> [-mode simulate|plan]

OPTIONS:
    -scenario <dir>       Path to scenario directory containing CSV files
    -sales-order <id>     Sales order to simulate or plan
    -mode <mode>          simulate (read only) or plan (creates work orders) (default: simulate)
    -shortage-mode <m>    aggregated or per-call (default: aggregated)
    -reservations         Subtract active reservations when simulating
    -user <id>            User recorded on created documents (default: cli)
    -format <fmt>         Output format: text, json, csv (default: text)
    -output <dir>         Output directory for results (required for csv)
    -validate             Validate the recipe graph before running
    -verbose              Print scenario details and the plan event audit
    -help                 Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── items.csv         # Item master data
    ├── recipes.csv       # One row per recipe line
    ├── inventory.csv     # On hand and reserved stock (optional)
    └── sales_orders.csv  # One row per sales order line

CSV FILE FORMATS:

items.csv:
    item_id,name,unit,kind
    DOUGH,Bread dough,KG,INTERMEDIATE

recipes.csv:
    recipe_id,output_item_id,output_quantity,is_default,input_item_id,input_quantity
    R-DOUGH,DOUGH,1,true,FLOUR,1

inventory.csv:
    item_id,location,on_hand,reserved
    FLOUR,MAIN,100,0

sales_orders.csv:
    sales_order_id,number,location,item_id,quantity
    SO-1,SO-1,MAIN,BREAD,2

EXAMPLES:
    mrp -scenario example/scenarios/scenario2 -sales-order SO-1
    mrp -scenario example/scenarios/shared -sales-order SO-SHARED -mode plan -verbose
    mrp -scenario example/scenarios/shared -sales-order SO-SHARED -shortage-mode per-call
    mrp -scenario example/scenarios/cycle -validate
    mrp -scenario example/scenarios/scenario2 -sales-order SO-1 -mode plan -format csv -output results/
`)
}
