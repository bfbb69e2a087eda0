package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mbanner77/allocengine/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		dataDir      = flag.String("data", "", "Path to data directory containing CSV files")
		storesFile   = flag.String("stores", "", "Path to stores CSV file")
		articlesFile = flag.String("articles", "", "Path to articles CSV file")
		demandFile   = flag.String("demand", "", "Path to demand CSV file")
		supplyFile   = flag.String("supply", "", "Path to supply CSV file")
		capacityFile = flag.String("capacity", "", "Path to capacity CSV file")
		configFile   = flag.String("config", "", "Path to YAML policy configuration")
		season       = flag.String("season", "", "Season used for listing checks")
		name         = flag.String("name", "", "Name of the ad-hoc variant")
		outputDir    = flag.String("output", "", "Output directory for results (optional)")
		format       = flag.String("format", "text", "Output format: text, json")
		verbose      = flag.Bool("verbose", false, "Enable verbose output")
		help         = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	config := commands.Config{
		DataDir:      *dataDir,
		StoresFile:   *storesFile,
		ArticlesFile: *articlesFile,
		DemandFile:   *demandFile,
		SupplyFile:   *supplyFile,
		CapacityFile: *capacityFile,
		ConfigFile:   *configFile,
		Season:       *season,
		Name:         *name,
		OutputDir:    *outputDir,
		Format:       *format,
		Verbose:      *verbose,
		Help:         *help,
	}

	// Create and execute command
	cmd := commands.NewRunCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
