package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/vsinha/mrpplanner/pkg/interfaces/cli/commands"
	"github.com/vsinha/mrpplanner/pkg/logging"
)

func main() {
	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		salesOrder   = flag.String("sales-order", "", "Sales order to simulate or plan")
		mode         = flag.String("mode", commands.ModeSimulate, "Run mode: simulate or plan")
		shortageMode = flag.String("shortage-mode", "aggregated", "Shortage netting: aggregated or per-call")
		reservations = flag.Bool("reservations", false, "Subtract active reservations when simulating")
		userID       = flag.String("user", "cli", "User recorded on created documents")
		outputDir    = flag.String("output", "", "Output directory for results (optional)")
		format       = flag.String("format", "text", "Output format: text, json, csv")
		validate     = flag.Bool("validate", false, "Validate the recipe graph before running")
		verbose      = flag.Bool("verbose", false, "Enable verbose output")
		logLevel     = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		help         = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// the event audit is written at info level
	level := *logLevel
	if *verbose && (level == "warn" || level == "error") {
		level = "info"
	}
	logging.Setup(level, "development")

	config := commands.Config{
		ScenarioDir:         *scenarioDir,
		SalesOrder:          *salesOrder,
		Mode:                *mode,
		ShortageMode:        *shortageMode,
		IncludeReservations: *reservations,
		UserID:              *userID,
		OutputDir:           *outputDir,
		Format:              *format,
		Validate:            *validate,
		Verbose:             *verbose,
		Help:                *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewMRPCommand(config).Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
