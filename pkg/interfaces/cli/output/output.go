package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mbanner77/allocengine/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	RunTime    time.Duration
	InputFiles map[string]string
}

// Generate creates output in the specified format
func Generate(result *dto.RunResult, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.RunResult, config Config) error {
	run := result.Run

	fmt.Printf("Allocation Run Summary\n")
	fmt.Printf("======================\n\n")

	fmt.Printf("Run ID: %s\n", run.ID)
	fmt.Printf("Status: %s\n", run.Status)
	fmt.Printf("Eligible stores: %d (excluded: %d)\n", result.IncludedCount(), result.ExcludedCount())
	fmt.Printf("Allocation lines: %d\n", len(run.Lines))
	fmt.Printf("Exceptions: %d\n", len(run.Exceptions))
	fmt.Printf("Run time: %v\n\n", config.RunTime)

	fmt.Printf("KPIs:\n")
	fmt.Printf("  Coverage: %s%%\n", run.KPIs.CoveragePct)
	fmt.Printf("  Service level: %s%%\n", run.KPIs.ServiceLevelPct)
	fmt.Printf("  Min-fill attainment: %s%%\n", run.KPIs.MinFillPct)
	fmt.Printf("  Substitutions: %d\n\n", run.KPIs.Substitutions)

	if len(run.Lines) > 0 {
		fmt.Printf("Allocation Lines:\n")
		fmt.Printf("%-12s %-8s %-8s %-8s %-10s %-6s\n",
			"Article", "Store", "Demand", "Final", "Limit", "Subst")
		fmt.Printf("%-12s %-8s %-8s %-8s %-10s %-6s\n",
			"------------", "--------", "--------", "--------", "----------", "------")

		for _, line := range run.Lines {
			subst := ""
			if line.Substitution {
				subst = string(line.SubstituteFor)
			}
			fmt.Printf("%-12s %-8s %-8d %-8d %-10s %-6s\n",
				line.ArticleNumber,
				line.StoreID,
				line.Demand,
				line.FinalQty,
				line.LimitingFactor.String(),
				subst)
		}
		fmt.Println()
	}

	if len(result.Excluded) > 0 {
		fmt.Printf("Excluded Stores:\n")
		fmt.Printf("%-8s %-24s\n", "Store", "Reason")
		fmt.Printf("%-8s %-24s\n", "--------", "------------------------")

		for _, excl := range result.Excluded {
			fmt.Printf("%-8s %-24s\n", excl.StoreID, excl.Reason)
		}
		fmt.Println()
	}

	if len(run.Exceptions) > 0 {
		fmt.Printf("Exceptions:\n")
		fmt.Printf("%-22s %-12s %-8s %s\n", "Kind", "Article", "Store", "Message")
		fmt.Printf("%-22s %-12s %-8s %s\n",
			"----------------------", "------------", "--------", "-------")

		for _, ex := range run.Exceptions {
			fmt.Printf("%-22s %-12s %-8s %s\n",
				ex.Kind.String(),
				ex.ArticleNumber,
				ex.StoreID,
				ex.Message)
		}
		fmt.Println()
	}

	if config.OutputDir != "" {
		if err := writeToFile(result, config, "run_results.json"); err != nil {
			return err
		}
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.RunResult, config Config) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if config.OutputDir != "" {
		if err := writeToFile(result, config, "run_results.json"); err != nil {
			return err
		}
	}

	return nil
}

func writeToFile(result *dto.RunResult, config Config, name string) error {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, name)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if config.Verbose {
		fmt.Printf("Results saved to: %s\n", filename)
	}
	return nil
}
