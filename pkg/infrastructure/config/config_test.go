package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("expected development environment, got %s", cfg.Server.Environment)
	}
	if cfg.Database.Path != "allocengine.db" {
		t.Errorf("unexpected default database path %s", cfg.Database.Path)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Engine.Workers)
	}
	if cfg.Policy.Strategy != "plan_data" || cfg.Policy.Solver != "proportional" {
		t.Errorf("unexpected default policy: %+v", cfg.Policy)
	}
	if cfg.Policy.RationingCap != 3 || cfg.Policy.MinFillPct != 0.8 {
		t.Errorf("unexpected default policy bounds: %+v", cfg.Policy)
	}
}

func TestLoadEmptyPathKeepsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Policy.Strategy != "plan_data" {
		t.Errorf("empty path should keep defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  environment: production
engine:
  workers: 8
policy:
  strategy: listing
  solver: costflow
  forecast_weight: 0.7
  pack_repair: strict
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Environment != "production" {
		t.Errorf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Engine.Workers)
	}
	if cfg.Policy.Strategy != "listing" || cfg.Policy.Solver != "costflow" {
		t.Errorf("policy section not applied: %+v", cfg.Policy)
	}
	if cfg.Policy.ForecastWeight != 0.7 {
		t.Errorf("expected forecast weight 0.7, got %v", cfg.Policy.ForecastWeight)
	}
	// untouched keys keep their defaults
	if cfg.Database.Path != "allocengine.db" {
		t.Errorf("database path should stay at default, got %s", cfg.Database.Path)
	}
	if cfg.Policy.RationingCap != 3 {
		t.Errorf("rationing cap should stay at default, got %d", cfg.Policy.RationingCap)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALLOC_PORT", "7070")
	t.Setenv("ALLOC_DB_PATH", "/tmp/alloc-test.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("ALLOC_PORT not applied, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/alloc-test.db" {
		t.Errorf("ALLOC_DB_PATH not applied, got %s", cfg.Database.Path)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected parse error")
		}
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("ALLOC_PORT", "not-a-port")
		if _, err := Load(""); err == nil {
			t.Fatalf("expected error for invalid ALLOC_PORT")
		}
	})
}

func TestPolicyParameters(t *testing.T) {
	cfg := Default()
	cfg.Policy.Strategy = "manual"
	cfg.Policy.Solver = "costflow"
	cfg.Policy.PackRepair = "strict"
	cfg.Policy.SoftZonePct = 0.1

	params, err := cfg.PolicyParameters()
	if err != nil {
		t.Fatalf("PolicyParameters() error: %v", err)
	}
	if params.Strategy != entities.ManualSelection {
		t.Errorf("expected manual selection strategy, got %v", params.Strategy)
	}
	if params.Solver != entities.CostFlow {
		t.Errorf("expected costflow solver, got %v", params.Solver)
	}
	if params.PackRepair != entities.Strict {
		t.Errorf("expected strict pack repair, got %v", params.PackRepair)
	}
	if params.SoftZonePct != 0.1 || params.MinFillPct != 0.8 || params.RationingCap != 3 {
		t.Errorf("scalar parameters not carried over: %+v", params)
	}
	if params.Scores.Urgency != 1 || params.Scores.OverstockRisk != 0.5 {
		t.Errorf("score weights not carried over: %+v", params.Scores)
	}
}

func TestPolicyParametersDefaultsAndErrors(t *testing.T) {
	cfg := Default()
	cfg.Policy.Strategy = ""
	cfg.Policy.Solver = ""
	cfg.Policy.PackRepair = ""

	params, err := cfg.PolicyParameters()
	if err != nil {
		t.Fatalf("PolicyParameters() error: %v", err)
	}
	if params.Strategy != entities.PlanData || params.Solver != entities.Proportional || params.PackRepair != entities.BestEffort {
		t.Errorf("empty strings should map to defaults: %+v", params)
	}

	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Policy.Strategy = "everywhere" }},
		{"unknown solver", func(c *Config) { c.Policy.Solver = "simplex" }},
		{"unknown pack repair", func(c *Config) { c.Policy.PackRepair = "loose" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if _, err := cfg.PolicyParameters(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPolicyParametersMode(t *testing.T) {
	cfg := Default()
	params, err := cfg.PolicyParameters()
	if err != nil {
		t.Fatalf("PolicyParameters() error: %v", err)
	}
	if params.Mode != entities.InitialAllocation {
		t.Errorf("default mode should be initial allocation, got %v", params.Mode)
	}

	cfg.Policy.Mode = "replenishment"
	cfg.Policy.Replenishment = ReplenishmentConfig{
		ServiceLevelZ:   1.65,
		DemandStdDev:    2,
		LeadTimeDays:    4,
		PresentationMin: 3,
		UrgencyDays:     7,
		TargetService:   0.95,
	}
	params, err = cfg.PolicyParameters()
	if err != nil {
		t.Fatalf("PolicyParameters() error: %v", err)
	}
	if params.Mode != entities.Replenishment {
		t.Errorf("expected replenishment mode, got %v", params.Mode)
	}
	rep := params.Replenishment
	if rep.ServiceLevelZ != 1.65 || rep.DemandStdDev != 2 || rep.LeadTimeDays != 4 {
		t.Errorf("safety-stock parameters not carried over: %+v", rep)
	}
	if rep.PresentationMin != 3 || rep.UrgencyDays != 7 || rep.TargetService != 0.95 {
		t.Errorf("scoring parameters not carried over: %+v", rep)
	}

	cfg.Policy.Mode = "backorder"
	if _, err := cfg.PolicyParameters(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
