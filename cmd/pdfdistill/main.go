// Command pdfdistill runs the distillation pipeline over one PDF or
// over every PDF in the configured source directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/docfold/pdfdistill/pkg/config"
	"github.com/docfold/pdfdistill/pkg/ledger"
	"github.com/docfold/pdfdistill/pkg/logging"
	"github.com/docfold/pdfdistill/pkg/pipeline"
	"github.com/docfold/pdfdistill/pkg/workspace"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", env("PDFDISTILL_CONFIG", ""), "path to a YAML config file")
		pdfPath    = flag.String("pdf", "", "process a single PDF instead of the source directory")
		steps      = flag.String("steps", "", "comma-separated steps to run (default: all)")
		reset      = flag.String("reset", "", "reset outputs and exit: all, tables, text or distilled")
		list       = flag.Bool("list", false, "list available steps and exit")
	)
	flag.Parse()

	if *list {
		fmt.Println("Available steps:")
		for _, step := range config.AvailableSteps {
			fmt.Printf("  %s\n", step)
		}
		return 0
	}

	cfg, err := loadConfig(*configPath, *steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logPath, closeLog, err := logging.Setup(logging.Options{
		Dir:        cfg.LogsDir(),
		Level:      env("LOG_LEVEL", cfg.Log.Level),
		MaxAgeDays: cfg.Log.MaxAgeDays,
		MaxFiles:   cfg.Log.MaxFiles,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}
	defer closeLog()
	if logPath != "" {
		slog.Debug("run log opened", "path", logPath)
	}

	if *reset != "" {
		if err := workspace.Reset(cfg.OutputRoot, *reset); err != nil {
			slog.Error("reset failed", "selector", *reset, "error", err)
			return 1
		}
		slog.Info("outputs reset", "selector", *reset)
		return 0
	}

	docs, err := collectDocuments(cfg, *pdfPath)
	if err != nil {
		slog.Error("no documents to process", "error", err)
		return 1
	}

	var led *ledger.Ledger
	if cfg.Ledger.Enabled {
		led, err = ledger.Open(cfg.LedgerPath())
		if err != nil {
			slog.Error("ledger open failed", "path", cfg.LedgerPath(), "error", err)
			return 1
		}
		defer led.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := pipeline.New(cfg, slog.Default(), led).RunBatch(ctx, docs)
	if err != nil {
		slog.Error("run aborted", "error", err)
		return 1
	}

	report(manifest, led)
	if manifest.Failures > 0 {
		return 1
	}
	return 0
}

// loadConfig merges a config file over the defaults and applies the
// -steps override.
func loadConfig(path, steps string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if steps != "" {
		cfg.Steps = nil
		for _, step := range strings.Split(steps, ",") {
			if step = strings.TrimSpace(step); step != "" {
				cfg.Steps = append(cfg.Steps, step)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// collectDocuments resolves the batch: a single named PDF, or every
// PDF in the source directory, or the configured default document.
func collectDocuments(cfg *config.Config, pdfPath string) ([]string, error) {
	if pdfPath != "" {
		return []string{pdfPath}, nil
	}

	matches, err := filepath.Glob(filepath.Join(cfg.SourceDir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 && cfg.DefaultDocument != "" {
		matches = []string{filepath.Join(cfg.SourceDir, cfg.DefaultDocument)}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no PDF documents in %s", cfg.SourceDir)
	}
	sort.Strings(matches)
	return matches, nil
}

// report prints the end-of-run summary, preferring the ledger's
// aggregate when recording is enabled.
func report(m pipeline.Manifest, led *ledger.Ledger) {
	fmt.Printf("\nRun %s: %d document(s), %d failure(s), %s\n",
		m.RunID, len(m.Documents), m.Failures, m.Finished.Sub(m.Started).Round(time.Millisecond))

	for _, doc := range m.Documents {
		status := "ok"
		if doc.Err != "" {
			status = doc.Err
		}
		fmt.Printf("  %-30s %s\n", doc.Doc, status)
	}

	if led == nil {
		return
	}
	summary, err := led.Summary(m.RunID)
	if err != nil {
		slog.Warn("ledger summary", "error", err)
		return
	}
	fmt.Printf("Cleaned %d -> %d bytes across %d stage(s)\n",
		summary.TotalOriginal, summary.TotalCleaned, summary.Stages)
}

// env returns the variable's value or the fallback when unset.
func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
