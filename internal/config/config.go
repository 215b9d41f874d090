// Package config loads engine settings from an HCL file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"

	"github.com/lox/holdem-equity/internal/equity"
)

// EnvPrefix prefixes environment overrides, e.g. EQUITY_ENGINE_BUDGET.
const EnvPrefix = "equity"

// Config is the complete configuration.
type Config struct {
	Engine EngineConfig `envconfig:"engine"`
	Log    LogConfig    `envconfig:"log"`
}

// EngineConfig tunes the equity engine. Durations are Go duration strings.
type EngineConfig struct {
	ScenarioCeiling      int64  `hcl:"scenario_ceiling,optional" envconfig:"scenario_ceiling"`
	BatchSize            int    `hcl:"batch_size,optional" envconfig:"batch_size"`
	Workers              int    `hcl:"workers,optional" envconfig:"workers"`
	Budget               string `hcl:"budget,optional" envconfig:"budget"`
	AnalysisBudgetCap    string `hcl:"analysis_budget_cap,optional" envconfig:"analysis_budget_cap"`
	PreflopMinIterations int64  `hcl:"preflop_min_iterations,optional" envconfig:"preflop_min_iterations"`
	// CacheSize below zero disables the exact-result cache.
	CacheSize int `hcl:"cache_size,optional" envconfig:"cache_size"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `hcl:"level,optional" envconfig:"level"`
}

// fileConfig mirrors Config with optional blocks for decoding.
type fileConfig struct {
	Engine *EngineConfig `hcl:"engine,block"`
	Log    *LogConfig    `hcl:"log,block"`
}

// Default returns the default configuration.
func Default() *Config {
	d := equity.DefaultSettings()
	return &Config{
		Engine: EngineConfig{
			ScenarioCeiling:      int64(d.ScenarioCeiling),
			BatchSize:            d.BatchSize,
			Workers:              d.Workers,
			Budget:               d.DefaultBudget.String(),
			AnalysisBudgetCap:    d.AnalysisBudgetCap.String(),
			PreflopMinIterations: d.PreflopMinIterations,
			CacheSize:            d.CacheSize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads filename, falling back to defaults when it does not exist, and
// then applies environment overrides.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		src, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if cfg, err = Parse(src, filename); err != nil {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	return cfg, nil
}

// Parse decodes HCL source over the defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if e := fc.Engine; e != nil {
		if e.ScenarioCeiling != 0 {
			cfg.Engine.ScenarioCeiling = e.ScenarioCeiling
		}
		if e.BatchSize != 0 {
			cfg.Engine.BatchSize = e.BatchSize
		}
		if e.Workers != 0 {
			cfg.Engine.Workers = e.Workers
		}
		if e.Budget != "" {
			cfg.Engine.Budget = e.Budget
		}
		if e.AnalysisBudgetCap != "" {
			cfg.Engine.AnalysisBudgetCap = e.AnalysisBudgetCap
		}
		if e.PreflopMinIterations != 0 {
			cfg.Engine.PreflopMinIterations = e.PreflopMinIterations
		}
		if e.CacheSize != 0 {
			cfg.Engine.CacheSize = e.CacheSize
		}
	}
	if fc.Log != nil && fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}
	return cfg, nil
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.Engine.ScenarioCeiling < 1 {
		return fmt.Errorf("scenario_ceiling must be positive, got %d", c.Engine.ScenarioCeiling)
	}
	if c.Engine.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.Engine.BatchSize)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.Engine.PreflopMinIterations < 0 {
		return fmt.Errorf("preflop_min_iterations must not be negative, got %d", c.Engine.PreflopMinIterations)
	}
	for name, value := range map[string]string{
		"budget":              c.Engine.Budget,
		"analysis_budget_cap": c.Engine.AnalysisBudgetCap,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Settings converts the engine block for equity.NewCalculator.
func (c *Config) Settings() (equity.Settings, error) {
	if err := c.Validate(); err != nil {
		return equity.Settings{}, err
	}
	budget, _ := time.ParseDuration(c.Engine.Budget)
	capped, _ := time.ParseDuration(c.Engine.AnalysisBudgetCap)
	return equity.Settings{
		ScenarioCeiling:      uint64(c.Engine.ScenarioCeiling),
		BatchSize:            c.Engine.BatchSize,
		Workers:              c.Engine.Workers,
		DefaultBudget:        budget,
		AnalysisBudgetCap:    capped,
		PreflopMinIterations: c.Engine.PreflopMinIterations,
		CacheSize:            max(c.Engine.CacheSize, 0),
	}, nil
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
