package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mbanner77/allocengine/pkg/application/services/orchestration"
	"github.com/mbanner77/allocengine/pkg/application/services/recipient"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/infrastructure/config"
	"github.com/mbanner77/allocengine/pkg/infrastructure/events"
	csvrepo "github.com/mbanner77/allocengine/pkg/infrastructure/repositories/csv"
	"github.com/mbanner77/allocengine/pkg/infrastructure/repositories/memory"
	"github.com/mbanner77/allocengine/pkg/interfaces/cli/output"
)

// Config holds configuration for the run command
type Config struct {
	DataDir      string
	StoresFile   string
	ArticlesFile string
	DemandFile   string
	SupplyFile   string
	CapacityFile string
	ConfigFile   string
	Season       string
	Name         string
	OutputDir    string
	Format       string
	Verbose      bool
	Help         bool
}

// RunCommand executes one allocation run from CSV extracts
type RunCommand struct {
	config Config
}

// NewRunCommand creates a new run command with the given configuration
func NewRunCommand(config Config) *RunCommand {
	return &RunCommand{
		config: config,
	}
}

// Execute runs the allocation command
func (c *RunCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	files, err := c.resolveInputFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(files)
	}

	cfg := config.Default()
	if c.config.ConfigFile != "" {
		cfg, err = config.Load(c.config.ConfigFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	}

	policy, err := cfg.PolicyParameters()
	if err != nil {
		return fmt.Errorf("error building policy: %w", err)
	}

	if c.config.Verbose {
		fmt.Println("Loading data from CSV files...")
	}

	loader := csvrepo.NewLoader()

	stores, err := loader.LoadStores(files["Stores"])
	if err != nil {
		return fmt.Errorf("error loading stores: %w", err)
	}

	articles, err := loader.LoadArticles(files["Articles"])
	if err != nil {
		return fmt.Errorf("error loading articles: %w", err)
	}

	demandLines, err := loader.LoadDemandLines(files["Demand"])
	if err != nil {
		return fmt.Errorf("error loading demand: %w", err)
	}

	supplySnapshots, err := loader.LoadSupplySnapshots(files["Supply"])
	if err != nil {
		return fmt.Errorf("error loading supply: %w", err)
	}

	capacitySnapshots, err := loader.LoadCapacitySnapshots(files["Capacity"])
	if err != nil {
		return fmt.Errorf("error loading capacity: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("Data loaded:\n")
		fmt.Printf("  Stores: %d\n", len(stores))
		fmt.Printf("  Articles: %d\n", len(articles))
		fmt.Printf("  Demand lines: %d\n", len(demandLines))
		fmt.Printf("  Supply snapshots: %d\n", len(supplySnapshots))
		fmt.Printf("  Capacity snapshots: %d\n", len(capacitySnapshots))
		fmt.Println()
	}

	storeRepo := memory.NewStoreRepository()
	if err := storeRepo.LoadStores(stores); err != nil {
		return fmt.Errorf("failed to load stores into repository: %w", err)
	}

	articleRepo := memory.NewArticleRepository()
	if err := articleRepo.LoadArticles(articles); err != nil {
		return fmt.Errorf("failed to load articles into repository: %w", err)
	}

	demandRepo := memory.NewDemandRepository()
	if err := demandRepo.LoadDemandLines(demandLines); err != nil {
		return fmt.Errorf("failed to load demand lines into repository: %w", err)
	}

	supplyRepo := memory.NewSupplyRepository()
	if err := supplyRepo.LoadSupplySnapshots(supplySnapshots); err != nil {
		return fmt.Errorf("failed to load supply snapshots into repository: %w", err)
	}

	capacityRepo := memory.NewCapacityRepository()
	if err := capacityRepo.LoadCapacitySnapshots(capacitySnapshots); err != nil {
		return fmt.Errorf("failed to load capacity snapshots into repository: %w", err)
	}

	journal := events.NewJournal()
	orchestrator := orchestration.NewOrchestrator(
		storeRepo,
		articleRepo,
		demandRepo,
		supplyRepo,
		capacityRepo,
		orchestration.WithJournal(journal),
		orchestration.WithWorkers(cfg.Engine.Workers),
	)

	name := c.config.Name
	if name == "" {
		name = "cli-run"
	}
	variant := &entities.Variant{
		ID:            entities.VariantID(uuid.NewString()),
		Name:          name,
		Season:        entities.Season(c.config.Season),
		Status:        entities.Draft,
		Policy:        policy,
		DeliveryStart: time.Now(),
		DeliveryEnd:   time.Now().AddDate(0, 1, 0),
		CreatedAt:     time.Now(),
	}

	if c.config.Verbose {
		fmt.Println("Running allocation...")
	}

	startTime := time.Now()
	result, err := orchestrator.Execute(ctx, variant, recipient.Input{Season: variant.Season})
	runTime := time.Since(startTime)

	if err != nil {
		return fmt.Errorf("error running allocation: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("Allocation completed in %v\n\n", runTime)
	}

	outputConfig := output.Config{
		Format:     c.config.Format,
		OutputDir:  c.config.OutputDir,
		Verbose:    c.config.Verbose,
		RunTime:    runTime,
		InputFiles: files,
	}

	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	return nil
}

// validateInputs validates the command configuration
func (c *RunCommand) validateInputs() error {
	if c.config.DataDir == "" &&
		(c.config.StoresFile == "" || c.config.ArticlesFile == "" ||
			c.config.DemandFile == "" || c.config.SupplyFile == "" ||
			c.config.CapacityFile == "") {
		return fmt.Errorf("must specify either -data directory or individual CSV files")
	}
	return nil
}

// resolveInputFiles determines the actual file paths to use
func (c *RunCommand) resolveInputFiles() (map[string]string, error) {
	var storesPath, articlesPath, demandPath, supplyPath, capacityPath string

	if c.config.DataDir != "" {
		storesPath = filepath.Join(c.config.DataDir, "stores.csv")
		articlesPath = filepath.Join(c.config.DataDir, "articles.csv")
		demandPath = filepath.Join(c.config.DataDir, "demand.csv")
		supplyPath = filepath.Join(c.config.DataDir, "supply.csv")
		capacityPath = filepath.Join(c.config.DataDir, "capacity.csv")
	} else {
		storesPath = c.config.StoresFile
		articlesPath = c.config.ArticlesFile
		demandPath = c.config.DemandFile
		supplyPath = c.config.SupplyFile
		capacityPath = c.config.CapacityFile
	}

	files := map[string]string{
		"Stores":   storesPath,
		"Articles": articlesPath,
		"Demand":   demandPath,
		"Supply":   supplyPath,
		"Capacity": capacityPath,
	}

	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	return files, nil
}

// printHeader prints the command header information
func (c *RunCommand) printHeader(files map[string]string) {
	fmt.Printf("Allocation Engine CLI\n")
	fmt.Printf("Input files:\n")
	fmt.Printf("  Stores: %s\n", files["Stores"])
	fmt.Printf("  Articles: %s\n", files["Articles"])
	fmt.Printf("  Demand: %s\n", files["Demand"])
	fmt.Printf("  Supply: %s\n", files["Supply"])
	fmt.Printf("  Capacity: %s\n", files["Capacity"])
	fmt.Printf("Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Printf("Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Println()
}

// showHelp displays the help message
func (c *RunCommand) showHelp() {
	fmt.Printf(`Allocation Engine CLI - Retail Allocation and Rationing

USAGE:
    alloc -data <directory>                # Use data directory with CSV files
    alloc -stores <file> -articles <file> ...  # Use individual CSV files

OPTIONS:
    -data <dir>         Path to data directory containing CSV files
    -stores <file>      Path to stores CSV file
    -articles <file>    Path to articles CSV file
    -demand <file>      Path to demand CSV file
    -supply <file>      Path to supply CSV file
    -capacity <file>    Path to capacity CSV file
    -config <file>      Path to YAML policy configuration (optional)
    -season <name>      Season used for listing checks
    -name <name>        Name of the ad-hoc variant (default: cli-run)
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json (default: text)
    -verbose            Enable verbose output
    -help               Show this help message

DATA DIRECTORY STRUCTURE:
    data_dir/
    ├── stores.csv      # Store master data
    ├── articles.csv    # Article master data
    ├── demand.csv      # Per-store demand plan
    ├── supply.csv      # Per-article supply positions
    └── capacity.csv    # Store capacity by product group

CSV FILE FORMATS:

stores.csv:
    store_id,name,cluster,closed,transport_blocked,delivery_blocked_until,listed_seasons
    S001,Berlin Mitte,A,false,false,,"SS26;FW26"

articles.csv:
    article_number,description,product_group,season,pack_size,space_per_unit,nos,avg_daily_forecast,size_curve
    A1001,Crew Tee,TOPS,SS26,6,0.5,true,4.5,"S:0.2;M:0.5;L:0.3"

demand.csv:
    article_number,store_id,plan_qty,forecast_qty,on_hand,inbound,has_forecast
    A1001,S001,40,35,5,0,true

supply.csv:
    article_number,on_hand,confirmed_inbound,planned_deliveries,reservations,external
    A1001,200,50,0,30,0

capacity.csv:
    store_id,product_group,soll,ist
    S001,TOPS,120,80

EXAMPLES:
    # Run a scenario directory
    alloc -data testdata/basic -season SS26 -verbose

    # Run with a policy config and JSON output
    alloc -data testdata/basic -config alloc.yaml -format json -output results/
`)
}
