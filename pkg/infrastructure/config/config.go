package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Config is the full daemon configuration: server settings plus the
// default allocation policy new variants start from
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Policy   PolicyConfig   `yaml:"policy"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	Workers int `yaml:"workers"`
}

// PolicyConfig mirrors entities.PolicyParameters in YAML form
type PolicyConfig struct {
	Mode              string              `yaml:"mode"`               // initial, replenishment
	Strategy          string              `yaml:"strategy"`           // plan_data, manual, listing, transport
	Solver            string              `yaml:"solver"`             // proportional, costflow
	ForecastWeight    float64             `yaml:"forecast_weight"`    // [0,1]
	MinFillPct        float64             `yaml:"min_fill_pct"`       // fraction of need
	FallbackThreshold float64             `yaml:"fallback_threshold"` // forecast fulfillment ratio
	SoftZonePct       float64             `yaml:"soft_zone_pct"`
	UnderfillPenalty  float64             `yaml:"underfill_penalty"`
	OvercapPenalty    float64             `yaml:"overcap_penalty"`
	RationingCap      int                 `yaml:"rationing_cap"`
	PackRepair        string              `yaml:"pack_repair"` // strict, best_effort
	MinSizesPerStore  int                 `yaml:"min_sizes_per_store"`
	Scores            ScoresConfig        `yaml:"scores"`
	Replenishment     ReplenishmentConfig `yaml:"replenishment"`
}

// ReplenishmentConfig configures the replenishment demand model used when
// the mode is "replenishment"
type ReplenishmentConfig struct {
	ServiceLevelZ   float64 `yaml:"service_level_z"`
	DemandStdDev    float64 `yaml:"demand_std_dev"`
	LeadTimeDays    float64 `yaml:"lead_time_days"`
	PresentationMin int64   `yaml:"presentation_min"`
	UrgencyDays     float64 `yaml:"urgency_days"` // days-of-supply urgency threshold
	TargetService   float64 `yaml:"target_service"`
}

type ScoresConfig struct {
	Urgency       float64 `yaml:"urgency"`
	Velocity      float64 `yaml:"velocity"`
	ServiceGap    float64 `yaml:"service_gap"`
	OverstockRisk float64 `yaml:"overstock_risk"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Environment: "development"},
		Database: DatabaseConfig{Path: "allocengine.db"},
		Engine:   EngineConfig{Workers: 4},
		Policy: PolicyConfig{
			Mode:              "initial",
			Strategy:          "plan_data",
			Solver:            "proportional",
			ForecastWeight:    0.5,
			MinFillPct:        0.8,
			FallbackThreshold: 0.3,
			RationingCap:      3,
			PackRepair:        "best_effort",
			MinSizesPerStore:  3,
			Scores:            ScoresConfig{Urgency: 1, Velocity: 0.5, ServiceGap: 1, OverstockRisk: 0.5},
			Replenishment: ReplenishmentConfig{
				ServiceLevelZ: 1.65,
				LeadTimeDays:  2,
				UrgencyDays:   7,
				TargetService: 1,
			},
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides (ALLOC_PORT, ALLOC_DB_PATH). An empty path keeps
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if port := os.Getenv("ALLOC_PORT"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOC_PORT %q: %w", port, err)
		}
		cfg.Server.Port = value
	}
	if dbPath := os.Getenv("ALLOC_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// PolicyParameters converts the YAML policy into domain parameters
func (c *Config) PolicyParameters() (entities.PolicyParameters, error) {
	mode, err := parseMode(c.Policy.Mode)
	if err != nil {
		return entities.PolicyParameters{}, err
	}
	strategy, err := parseStrategy(c.Policy.Strategy)
	if err != nil {
		return entities.PolicyParameters{}, err
	}
	solver, err := parseSolver(c.Policy.Solver)
	if err != nil {
		return entities.PolicyParameters{}, err
	}
	packRepair, err := parsePackRepair(c.Policy.PackRepair)
	if err != nil {
		return entities.PolicyParameters{}, err
	}

	return entities.PolicyParameters{
		Mode:              mode,
		Strategy:          strategy,
		Solver:            solver,
		ForecastWeight:    c.Policy.ForecastWeight,
		MinFillPct:        c.Policy.MinFillPct,
		FallbackThreshold: c.Policy.FallbackThreshold,
		SoftZonePct:       c.Policy.SoftZonePct,
		UnderfillPenalty:  c.Policy.UnderfillPenalty,
		OvercapPenalty:    c.Policy.OvercapPenalty,
		RationingCap:      c.Policy.RationingCap,
		PackRepair:        packRepair,
		MinSizesPerStore:  c.Policy.MinSizesPerStore,
		Scores: entities.ScoreWeights{
			Urgency:       c.Policy.Scores.Urgency,
			Velocity:      c.Policy.Scores.Velocity,
			ServiceGap:    c.Policy.Scores.ServiceGap,
			OverstockRisk: c.Policy.Scores.OverstockRisk,
		},
		Replenishment: entities.ReplenishmentPolicy{
			ServiceLevelZ:   c.Policy.Replenishment.ServiceLevelZ,
			DemandStdDev:    c.Policy.Replenishment.DemandStdDev,
			LeadTimeDays:    c.Policy.Replenishment.LeadTimeDays,
			PresentationMin: entities.Quantity(c.Policy.Replenishment.PresentationMin),
			UrgencyDays:     c.Policy.Replenishment.UrgencyDays,
			TargetService:   c.Policy.Replenishment.TargetService,
		},
	}, nil
}

func parseMode(raw string) (entities.AllocationMode, error) {
	switch raw {
	case "", "initial":
		return entities.InitialAllocation, nil
	case "replenishment":
		return entities.Replenishment, nil
	default:
		return 0, fmt.Errorf("unknown allocation mode %q", raw)
	}
}

func parseStrategy(raw string) (entities.PlanningStrategy, error) {
	switch raw {
	case "", "plan_data":
		return entities.PlanData, nil
	case "manual":
		return entities.ManualSelection, nil
	case "listing":
		return entities.Listing, nil
	case "transport":
		return entities.TransportRelations, nil
	default:
		return 0, fmt.Errorf("unknown planning strategy %q", raw)
	}
}

func parseSolver(raw string) (entities.SolverStrategy, error) {
	switch raw {
	case "", "proportional":
		return entities.Proportional, nil
	case "costflow":
		return entities.CostFlow, nil
	default:
		return 0, fmt.Errorf("unknown solver strategy %q", raw)
	}
}

func parsePackRepair(raw string) (entities.PackRepairMode, error) {
	switch raw {
	case "strict":
		return entities.Strict, nil
	case "", "best_effort":
		return entities.BestEffort, nil
	default:
		return 0, fmt.Errorf("unknown pack repair mode %q", raw)
	}
}
