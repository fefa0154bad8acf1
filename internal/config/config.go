/*
Package config loads server and engine configuration from TOML.

PURPOSE:
  One typed configuration document for the server binary. Thresholds and
  workforce parameters live here so operations can tune them without a
  rebuild; everything has a sensible default and a missing file is not an
  error unless a path was given explicitly.

FILE FORMAT (planner.toml):
  [server]
  port = 8080
  db_path = "planner.db"
  allowed_origins = ["http://localhost:5173"]

  [engine]
  material_excess_ratio = 2.0
  workforce_excess_ratio = 1.5
  ratio_critical = false
  batch_size = 100
  hours_per_batch = 8
  operators_per_batch = 2
  hours_per_workday = 8
  snapshot_freshness_minutes = 0

SEE ALSO:
  - cmd/server/main.go: Flag handling and startup
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/planning"
)

// DefaultConfigFileName is the standard configuration file name.
const DefaultConfigFileName = "planner.toml"

// Config is the full configuration document.
type Config struct {
	Server ServerConfig `toml:"server"`
	Engine EngineConfig `toml:"engine"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	DBPath         string   `toml:"db_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type EngineConfig struct {
	MaterialExcessRatio      float64 `toml:"material_excess_ratio"`
	WorkforceExcessRatio     float64 `toml:"workforce_excess_ratio"`
	RatioCritical            bool    `toml:"ratio_critical"`
	BatchSize                float64 `toml:"batch_size"`
	HoursPerBatch            float64 `toml:"hours_per_batch"`
	OperatorsPerBatch        float64 `toml:"operators_per_batch"`
	HoursPerWorkday          float64 `toml:"hours_per_workday"`
	SnapshotFreshnessMinutes int     `toml:"snapshot_freshness_minutes"`
}

// LoadError reports the path that failed to load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			DBPath:         "planner.db",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Engine: EngineConfig{
			MaterialExcessRatio:  2.0,
			WorkforceExcessRatio: 1.5,
			BatchSize:            100,
			HoursPerBatch:        8,
			OperatorsPerBatch:    2,
			HoursPerWorkday:      8,
		},
	}
}

// Load reads configuration from the given path. An empty path tries
// DefaultConfigFileName in the working directory and falls back to
// Default() when absent; an explicit path must exist.
func Load(explicitPath string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = DefaultConfigFileName
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid port %d", cfg.Server.Port)}
	}
	return cfg, nil
}

// Tiers converts the engine section to a planning.TierConfig.
func (c *Config) Tiers() planning.TierConfig {
	return planning.TierConfig{
		MaterialExcessRatio:  decimal.NewFromFloat(c.Engine.MaterialExcessRatio),
		WorkforceExcessRatio: decimal.NewFromFloat(c.Engine.WorkforceExcessRatio),
		RatioCritical:        c.Engine.RatioCritical,
	}
}

// Params converts the engine section to planning.WorkforceParams.
func (c *Config) Params() planning.WorkforceParams {
	return planning.WorkforceParams{
		BatchSize:         decimal.NewFromFloat(c.Engine.BatchSize),
		HoursPerBatch:     decimal.NewFromFloat(c.Engine.HoursPerBatch),
		OperatorsPerBatch: decimal.NewFromFloat(c.Engine.OperatorsPerBatch),
		HoursPerWorkday:   decimal.NewFromFloat(c.Engine.HoursPerWorkday),
	}
}

// Freshness converts the freshness window; zero disables the check.
func (c *Config) Freshness() time.Duration {
	return time.Duration(c.Engine.SnapshotFreshnessMinutes) * time.Minute
}
