package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/services"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	Scenario  string
}

// Report is what a CLI run produced. Exactly one of Simulation and Plan is set.
type Report struct {
	Simulation *dto.SimulationResult `json:"simulation,omitempty"`
	Plan       *dto.PlanResult       `json:"plan,omitempty"`
}

// Generate writes the report in the configured format
func Generate(w io.Writer, report Report, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(w, report, config)
	case "json":
		return generateJSONOutput(w, report, config)
	case "csv":
		return generateCSVOutput(w, report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func requirementsOf(report Report) ([]entities.NetRequirement, []entities.ItemID) {
	if report.Plan != nil {
		return report.Plan.Requirements, report.Plan.MissingRecipes
	}
	if report.Simulation != nil {
		return report.Simulation.Requirements, report.Simulation.MissingRecipes
	}
	return nil, nil
}

// generateTextOutput creates human-readable text output
func generateTextOutput(w io.Writer, report Report, config Config) error {
	requirements, missing := requirementsOf(report)

	switch {
	case report.Plan != nil:
		plan := report.Plan
		fmt.Fprintf(w, "Plan for sales order %s\n", plan.SalesOrderID)
		fmt.Fprintf(w, "======================\n\n")
		fmt.Fprintf(w, "Global Status: %s\n", plan.GlobalStatus)
		fmt.Fprintf(w, "Work Orders: %d\n", plan.WorkOrderCount)
		fmt.Fprintf(w, "Purchase Requisition: %t\n", plan.PurchaseRequisitionCreated)
	case report.Simulation != nil:
		sim := report.Simulation
		fmt.Fprintf(w, "Simulation for sales order %s (%s)\n", sim.SalesOrderID, sim.Mode)
		fmt.Fprintf(w, "======================\n\n")
		fmt.Fprintf(w, "Feasible: %t\n", sim.Feasible)
	default:
		return fmt.Errorf("nothing to report")
	}
	if config.Verbose {
		fmt.Fprintf(w, "Elapsed: %v\n", config.Elapsed)
	}
	fmt.Fprintln(w)

	if len(requirements) > 0 {
		fmt.Fprintf(w, "Requirements:\n")
		fmt.Fprintf(w, "%-15s %-14s %-6s %-12s %-12s %-12s %-6s\n",
			"Item", "Kind", "Level", "Needed", "Available", "Shortage", "Recipe")
		fmt.Fprintf(w, "%-15s %-14s %-6s %-12s %-12s %-12s %-6s\n",
			"---------------", "--------------", "------", "------------", "------------", "------------", "------")
		for _, req := range requirements {
			fmt.Fprintf(w, "%-15s %-14s %-6d %-12s %-12s %-12s %-6t\n",
				req.ItemID, req.Kind, req.Level,
				req.Needed.String(), req.Available.String(), req.Shortage.String(), req.HasRecipe)
		}
		fmt.Fprintln(w)
	}

	if len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "Missing Recipes: %s\n\n", strings.Join(ids, ", "))
	}

	if plan := report.Plan; plan != nil {
		if len(plan.WorkOrders) > 0 {
			numbers := make(map[string]string, len(plan.WorkOrders))
			for _, wo := range plan.WorkOrders {
				numbers[wo.ID.String()] = wo.Number
			}
			fmt.Fprintf(w, "Work Orders:\n")
			fmt.Fprintf(w, "%-12s %-15s %-12s %-12s %-20s\n", "Number", "Item", "Quantity", "Parent", "Status")
			fmt.Fprintf(w, "%-12s %-15s %-12s %-12s %-20s\n",
				"------------", "---------------", "------------", "------------", "--------------------")
			for _, wo := range plan.WorkOrders {
				parent := "-"
				if wo.ParentID != nil {
					parent = numbers[wo.ParentID.String()]
				}
				fmt.Fprintf(w, "%-12s %-15s %-12s %-12s %-20s\n",
					wo.Number, wo.ItemID, wo.PlannedQuantity.String(), parent, wo.Status)
			}
			fmt.Fprintln(w)
		}

		if pr := plan.PurchaseRequisition; pr != nil {
			fmt.Fprintf(w, "Purchase Requisition %s (%s):\n", pr.Number, pr.Priority)
			for _, line := range pr.Lines {
				fmt.Fprintf(w, "  %-15s %-12s %s\n", line.ItemID, line.Quantity.String(), line.Note)
			}
			fmt.Fprintln(w)
		}

		if len(plan.BlockingIssues) > 0 {
			fmt.Fprintf(w, "Blocking Issues:\n")
			for _, issue := range plan.BlockingIssues {
				fmt.Fprintf(w, "  %-15s short %-12s %s\n", issue.ItemID, issue.Shortage.String(), issue.Reason)
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

// generateJSONOutput prints JSON to w or saves it under OutputDir
func generateJSONOutput(w io.Writer, report Report, config Config) error {
	var payload interface{} = report.Simulation
	name := "simulation.json"
	if report.Plan != nil {
		payload = report.Plan
		name = "plan.json"
	}

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(w, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	fmt.Fprintf(w, "JSON results saved to: %s\n", filename)
	return nil
}

// generateCSVOutput writes requirements.csv and, for plans, work_orders.csv and requisition_lines.csv
func generateCSVOutput(w io.Writer, report Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	requirements, _ := requirementsOf(report)
	rows := [][]string{{"item_id", "kind", "level", "needed", "available", "shortage", "has_recipe"}}
	for _, req := range requirements {
		rows = append(rows, []string{
			string(req.ItemID), string(req.Kind), strconv.Itoa(req.Level),
			req.Needed.String(), req.Available.String(), req.Shortage.String(), strconv.FormatBool(req.HasRecipe),
		})
	}
	written := []string{}
	path, err := writeCSV(config.OutputDir, "requirements.csv", rows)
	if err != nil {
		return err
	}
	written = append(written, path)

	if plan := report.Plan; plan != nil {
		rows = [][]string{{"number", "item_id", "recipe_id", "planned_quantity", "status", "parent_id", "location_id"}}
		for _, wo := range plan.WorkOrders {
			parent := ""
			if wo.ParentID != nil {
				parent = wo.ParentID.String()
			}
			rows = append(rows, []string{
				wo.Number, string(wo.ItemID), string(wo.RecipeID), wo.PlannedQuantity.String(),
				string(wo.Status), parent, wo.LocationID,
			})
		}
		if path, err = writeCSV(config.OutputDir, "work_orders.csv", rows); err != nil {
			return err
		}
		written = append(written, path)

		if pr := plan.PurchaseRequisition; pr != nil {
			rows = [][]string{{"requisition", "priority", "item_id", "quantity", "note"}}
			for _, line := range pr.Lines {
				rows = append(rows, []string{pr.Number, string(pr.Priority), string(line.ItemID), line.Quantity.String(), line.Note})
			}
			if path, err = writeCSV(config.OutputDir, "requisition_lines.csv", rows); err != nil {
				return err
			}
			written = append(written, path)
		}
	}

	fmt.Fprintf(w, "CSV results saved to:\n")
	for _, p := range written {
		fmt.Fprintf(w, "  %s\n", p)
	}
	return nil
}

func writeCSV(dir, name string, rows [][]string) (string, error) {
	filename := filepath.Join(dir, name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return filename, nil
}

// WriteValidation prints the recipe catalog validation report
func WriteValidation(w io.Writer, result *services.ValidationResult) {
	if result.IsValid() {
		fmt.Fprintf(w, "Recipe validation passed\n")
	} else {
		fmt.Fprintf(w, "Recipe validation failed:\n")
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	if len(result.MissingRecipes) > 0 {
		ids := make([]string, len(result.MissingRecipes))
		for i, id := range result.MissingRecipes {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "Items without a default recipe: %s\n", strings.Join(ids, ", "))
	}
	fmt.Fprintln(w)
}
