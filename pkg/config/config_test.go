package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docfold/pdfdistill/pkg/pdf"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.SourceDir != filepath.Join("data", "sourcedocs") {
		t.Errorf("SourceDir = %q", cfg.SourceDir)
	}
	if cfg.OutputRoot != filepath.Join("data", "outputs") {
		t.Errorf("OutputRoot = %q", cfg.OutputRoot)
	}
	if cfg.MinTableSize != 3 {
		t.Errorf("MinTableSize = %d, want 3", cfg.MinTableSize)
	}
	if len(cfg.TableStrategies) != 2 {
		t.Fatalf("TableStrategies = %v, want both strategies", cfg.TableStrategies)
	}
	if !cfg.Ledger.Enabled {
		t.Error("ledger should be enabled by default")
	}
	for _, step := range AvailableSteps {
		if !cfg.HasStep(step) {
			t.Errorf("default config should enable step %q", step)
		}
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `source_dir: /srv/pdfs
steps:
  - text
  - assemble
min_table_size: 5
table_export_formats:
  - json
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SourceDir != "/srv/pdfs" {
		t.Errorf("SourceDir = %q, want /srv/pdfs", cfg.SourceDir)
	}
	// Untouched fields keep their defaults.
	if cfg.OutputRoot != filepath.Join("data", "outputs") {
		t.Errorf("OutputRoot = %q, want default", cfg.OutputRoot)
	}
	if cfg.MinTableSize != 5 {
		t.Errorf("MinTableSize = %d, want 5", cfg.MinTableSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.MaxAgeDays != 30 {
		t.Errorf("Log.MaxAgeDays = %d, want default 30", cfg.Log.MaxAgeDays)
	}
	if !cfg.HasStep(StepText) || cfg.HasStep(StepTables) || !cfg.HasStep(StepAssemble) {
		t.Errorf("Steps = %v, want text and assemble only", cfg.Steps)
	}
	if !cfg.HasExportFormat(ExportJSON) || cfg.HasExportFormat(ExportCSV) {
		t.Errorf("TableExportFormats = %v, want json only", cfg.TableExportFormats)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("steps: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing source dir",
			mutate:  func(c *Config) { c.SourceDir = "" },
			wantErr: "source_dir",
		},
		{
			name:    "missing output root",
			mutate:  func(c *Config) { c.OutputRoot = "" },
			wantErr: "output_root",
		},
		{
			name:    "zero min table size",
			mutate:  func(c *Config) { c.MinTableSize = 0 },
			wantErr: "min_table_size",
		},
		{
			name:    "no strategies",
			mutate:  func(c *Config) { c.TableStrategies = nil },
			wantErr: "strategy",
		},
		{
			name:    "bad strategy",
			mutate:  func(c *Config) { c.TableStrategies = []string{"lattice"} },
			wantErr: `"lattice"`,
		},
		{
			name:    "bad export format",
			mutate:  func(c *Config) { c.TableExportFormats = []string{"xml"} },
			wantErr: `"xml"`,
		},
		{
			name:    "bad step",
			mutate:  func(c *Config) { c.Steps = []string{"clean"} },
			wantErr: `"clean"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestHasStepEmptyEnablesAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = nil
	for _, step := range AvailableSteps {
		if !cfg.HasStep(step) {
			t.Errorf("empty step list should enable %q", step)
		}
	}
}

func TestDerivedDirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputRoot = "/tmp/out"

	tests := []struct {
		got, want string
	}{
		{cfg.TextDir(), filepath.Join("/tmp/out", "text")},
		{cfg.TablesDir(), filepath.Join("/tmp/out", "tables")},
		{cfg.DistilledDir(), filepath.Join("/tmp/out", "distilled")},
		{cfg.LogsDir(), filepath.Join("/tmp/out", "logs")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("derived dir = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLedgerPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputRoot = "/tmp/out"
	if got := cfg.LedgerPath(); got != filepath.Join("/tmp/out", "ledger.db") {
		t.Errorf("LedgerPath() = %q, want default under output root", got)
	}

	cfg.Ledger.Path = "/var/lib/distill.db"
	if got := cfg.LedgerPath(); got != "/var/lib/distill.db" {
		t.Errorf("LedgerPath() = %q, want explicit override", got)
	}

	// Strategy constants should line up with the extraction engine.
	if pdf.StrategyLines != "lines" || pdf.StrategyText != "text" {
		t.Fatalf("strategy constants drifted: %q %q", pdf.StrategyLines, pdf.StrategyText)
	}
}
