package pdfdistill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docfold/pdfdistill/pkg/config"
	"github.com/docfold/pdfdistill/pkg/pipeline"
)

func TestOpenMissingFile(t *testing.T) {
	backends := []struct {
		name string
		open func(string) (Document, error)
	}{
		{"fallback chain", Open},
		{"pdfcpu", OpenWithPDFCPU},
		{"ledongthuc", OpenWithLedongthuc},
		{"dslipak", OpenWithDslipak},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			doc, err := b.open(filepath.Join(t.TempDir(), "nope.pdf"))
			if err == nil {
				doc.Close()
				t.Fatal("expected an error for a missing file")
			}
		})
	}
}

func TestProcessMissingDocument(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SourceDir = t.TempDir()
	cfg.OutputRoot = t.TempDir()

	res, err := Process(context.Background(), cfg, filepath.Join(cfg.SourceDir, "absent.pdf"))
	if !errors.Is(err, pipeline.ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
	if res.Err == "" {
		t.Error("document result should record the failure")
	}

	// The manifest is written even when every document fails.
	if _, err := os.Stat(filepath.Join(cfg.OutputRoot, "manifest.json")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestProcessAllIsolatesFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SourceDir = t.TempDir()
	cfg.OutputRoot = t.TempDir()

	missing := filepath.Join(cfg.SourceDir, "gone.pdf")
	alsoMissing := filepath.Join(cfg.SourceDir, "gone_too.pdf")

	m, err := ProcessAll(context.Background(), cfg, []string{missing, alsoMissing})
	if err != nil {
		t.Fatalf("batch itself should not fail: %v", err)
	}
	if len(m.Documents) != 2 {
		t.Fatalf("expected 2 document results, got %d", len(m.Documents))
	}
	if m.Failures != 2 {
		t.Errorf("expected 2 recorded failures, got %d", m.Failures)
	}
	if m.RunID == "" {
		t.Error("manifest should carry a run id")
	}
}
