// Package config loads, defaults, and validates the pipeline
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docfold/pdfdistill/pkg/pdf"
	"github.com/docfold/pdfdistill/pkg/workspace"
)

// Pipeline steps, in execution order.
const (
	StepText     = "text"
	StepTables   = "tables"
	StepAssemble = "assemble"
)

// AvailableSteps lists every runnable step in execution order.
var AvailableSteps = []string{StepText, StepTables, StepAssemble}

// Table export formats.
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

// Config holds the full pipeline configuration.
type Config struct {
	// SourceDir is scanned for PDF documents in batch mode.
	SourceDir string `yaml:"source_dir"`
	// OutputRoot holds the per-stage artifact directories.
	OutputRoot string `yaml:"output_root"`
	// DefaultDocument is processed when no document is named.
	DefaultDocument string `yaml:"default_document"`

	// Steps to run. Empty enables every step.
	Steps []string `yaml:"steps"`

	// MinTableSize is the minimum row count for a detected table.
	MinTableSize int `yaml:"min_table_size"`
	// TableStrategies are the detection strategies run per document.
	TableStrategies []string `yaml:"table_strategies"`
	// TableExportFormats adds per-table exports next to each markdown
	// artifact.
	TableExportFormats []string `yaml:"table_export_formats"`

	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

// LedgerConfig configures the SQLite run ledger.
type LedgerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path overrides the default ledger location under OutputRoot.
	Path string `yaml:"path"`
}

// LogConfig configures logging and run-log retention.
type LogConfig struct {
	Level      string `yaml:"level"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxFiles   int    `yaml:"max_files"`
}

// DefaultConfig returns the layout the original toolchain used: sources
// under data/sourcedocs, artifacts under data/outputs.
func DefaultConfig() *Config {
	return &Config{
		SourceDir:       filepath.Join("data", "sourcedocs"),
		OutputRoot:      filepath.Join("data", "outputs"),
		Steps:           append([]string(nil), AvailableSteps...),
		MinTableSize:    3,
		TableStrategies: []string{pdf.StrategyLines, pdf.StrategyText},
		Ledger: LedgerConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxAgeDays: 30,
			MaxFiles:   20,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output_root is required")
	}
	if c.MinTableSize <= 0 {
		return fmt.Errorf("min_table_size must be > 0")
	}
	if len(c.TableStrategies) == 0 {
		return fmt.Errorf("at least one table strategy is required")
	}
	for _, strategy := range c.TableStrategies {
		switch strategy {
		case pdf.StrategyLines, pdf.StrategyText:
		default:
			return fmt.Errorf("unsupported table strategy %q (use %s or %s)",
				strategy, pdf.StrategyLines, pdf.StrategyText)
		}
	}
	for _, format := range c.TableExportFormats {
		switch format {
		case ExportJSON, ExportCSV:
		default:
			return fmt.Errorf("unsupported table export format %q (use %s or %s)",
				format, ExportJSON, ExportCSV)
		}
	}
	for _, step := range c.Steps {
		if !validStep(step) {
			return fmt.Errorf("unknown step %q (available: %s)",
				step, strings.Join(AvailableSteps, ", "))
		}
	}
	return nil
}

func validStep(step string) bool {
	for _, s := range AvailableSteps {
		if s == step {
			return true
		}
	}
	return false
}

// HasStep reports whether the named step is enabled. An empty step list
// enables everything.
func (c *Config) HasStep(step string) bool {
	if len(c.Steps) == 0 {
		return true
	}
	for _, s := range c.Steps {
		if s == step {
			return true
		}
	}
	return false
}

// HasExportFormat reports whether tables are exported in the given format.
func (c *Config) HasExportFormat(format string) bool {
	for _, f := range c.TableExportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// TextDir is where per-page text artifacts live.
func (c *Config) TextDir() string {
	return filepath.Join(c.OutputRoot, workspace.TextDirName)
}

// TablesDir is where rendered table artifacts live.
func (c *Config) TablesDir() string {
	return filepath.Join(c.OutputRoot, workspace.TablesDirName)
}

// DistilledDir is where assembled documents live.
func (c *Config) DistilledDir() string {
	return filepath.Join(c.OutputRoot, workspace.DistilledDirName)
}

// LogsDir is where run logs live.
func (c *Config) LogsDir() string {
	return filepath.Join(c.OutputRoot, workspace.LogsDirName)
}

// LedgerPath is the SQLite ledger location, defaulting to the output root.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.OutputRoot, "ledger.db")
}
