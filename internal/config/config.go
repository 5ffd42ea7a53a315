// Package config holds the explicit configuration value threaded through the
// pipeline and runner constructors. Nothing in the harness reads ambient
// process-wide state; every limit, path and toggle lives here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all symbench configuration.
type Config struct {
	// External tool locations
	Tools ToolsConfig `yaml:"tools"`

	// Resource ceilings for external invocations
	Limits LimitsConfig `yaml:"limits"`

	// Input/output locations
	Paths PathsConfig `yaml:"paths"`

	// Model catalogue and workflow selection
	Catalogue CatalogueConfig `yaml:"catalogue"`

	// Optional sqlite run history
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ToolsConfig locates the external verification tools.
type ToolsConfig struct {
	// Directory holding the mCRL2 binaries (mcrl22lps, lps2pbes, pbesrewr,
	// pbessolve, ...)
	MCRL2BinDir string `yaml:"mcrl2_bin_dir"`

	// Directory holding the merc-pbes binary (symmetry detector)
	MercBinDir string `yaml:"merc_bin_dir"`

	// Limit-enforcing supervisor script wrapped around bounded invocations
	SupervisorPath string `yaml:"supervisor_path"`

	// GAP system binary handed to the solver via --gap-path
	GapPath string `yaml:"gap_path"`
}

// LimitsConfig configures the resource ceilings the supervisor enforces.
type LimitsConfig struct {
	// CPU-time ceiling in seconds per invocation
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Memory ceiling in KB per invocation
	MemoryLimitKB int64 `yaml:"memory_limit_kb"`

	// When false, tools run without the supervisor wrapper
	Enforce bool `yaml:"enforce"`

	// Captured stdout/stderr byte ceiling per stream
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// PathsConfig locates models, properties and chosen symmetries on disk.
type PathsConfig struct {
	ModelsDir     string `yaml:"models_dir"`
	PropertiesDir string `yaml:"properties_dir"`
	SymmetriesDir string `yaml:"symmetries_dir"`
	ResultFile    string `yaml:"result_file"`
}

// CatalogueConfig selects the model tier and the workflow variant set.
type CatalogueConfig struct {
	// Selection is one of xs, s, m, l, xl
	Selection string `yaml:"selection"`

	// Workflow is one of first-chosen, chosen, first, all
	Workflow string `yaml:"workflow"`
}

// HistoryConfig configures the optional sqlite run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	// Dir is the log directory; empty disables file logging entirely.
	Dir string `yaml:"dir"`

	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is given.
// Ceilings match the published experiment setup: 1800 s CPU, 64 GB memory.
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			SupervisorPath: "timeout",
		},
		Limits: LimitsConfig{
			TimeoutSeconds: 1800,
			MemoryLimitKB:  64 * 1024 * 1024,
			Enforce:        true,
			MaxOutputBytes: 8 * 1024 * 1024,
		},
		Paths: PathsConfig{
			PropertiesDir: "properties",
			SymmetriesDir: "symmetries",
			ResultFile:    "results.yaml",
		},
		Catalogue: CatalogueConfig{
			Selection: "m",
			Workflow:  "first-chosen",
		},
		History: HistoryConfig{
			Path: "symbench-history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment relocate the external tools without
// editing the config file, which is how CI machines point at their own
// installs.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYMBENCH_MCRL2_BIN"); v != "" {
		c.Tools.MCRL2BinDir = v
	}
	if v := os.Getenv("SYMBENCH_MERC_BIN"); v != "" {
		c.Tools.MercBinDir = v
	}
	if v := os.Getenv("SYMBENCH_SUPERVISOR"); v != "" {
		c.Tools.SupervisorPath = v
	}
	if v := os.Getenv("SYMBENCH_GAP"); v != "" {
		c.Tools.GapPath = v
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Limits.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be >= 0")
	}
	if c.Limits.MemoryLimitKB < 0 {
		return fmt.Errorf("memory_limit_kb must be >= 0")
	}
	if c.Limits.MaxOutputBytes <= 0 {
		return fmt.Errorf("max_output_bytes must be > 0")
	}
	switch c.Catalogue.Selection {
	case "xs", "s", "m", "l", "xl":
	default:
		return fmt.Errorf("unknown selection %q", c.Catalogue.Selection)
	}
	switch c.Catalogue.Workflow {
	case "first-chosen", "chosen", "first", "all":
	default:
		return fmt.Errorf("unknown workflow %q", c.Catalogue.Workflow)
	}
	if c.Limits.Enforce && c.Tools.SupervisorPath == "" {
		return fmt.Errorf("supervisor_path required when limits are enforced")
	}
	return nil
}
