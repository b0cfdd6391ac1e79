// Package pipeline orchestrates the stages that turn a source PDF into
// a distilled markdown document: per-page text extraction, table
// detection, guarded cleanup passes, and final assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/docfold/pdfdistill/pkg/assemble"
	"github.com/docfold/pdfdistill/pkg/config"
	"github.com/docfold/pdfdistill/pkg/ledger"
	"github.com/docfold/pdfdistill/pkg/pdf"
	"github.com/docfold/pdfdistill/pkg/tablemd"
	"github.com/docfold/pdfdistill/pkg/textclean"
	"github.com/docfold/pdfdistill/pkg/workspace"
)

// Sentinel errors classifying document failures, checked with errors.Is.
var (
	ErrInputMissing = errors.New("input document missing")
	ErrExtraction   = errors.New("extraction failed")
	ErrWrite        = errors.New("artifact write failed")

	// ErrEncoding reports an artifact none of the fallback encodings
	// could decode.
	ErrEncoding = textclean.ErrUndecodable
)

// PageText is one page's extracted text, consumed by assembly.
type PageText = assemble.PageText

// Stage names as they appear in the manifest and the ledger.
const (
	StageText           = "text"
	StageCleanText      = "clean_text"
	StageTables         = "tables"
	StageCleanTables    = "clean_tables"
	StageAssemble       = "assemble"
	StageCleanAssembled = "clean_assembled"
)

// StageResult records one stage's outcome for one document.
type StageResult struct {
	Stage       string  `json:"stage"`
	Doc         string  `json:"doc"`
	Artifacts   int     `json:"artifacts"`
	OriginalLen int     `json:"original_len"`
	CleanedLen  int     `json:"cleaned_len"`
	Reduction   float64 `json:"reduction_pct"`
	DurationUs  int64   `json:"duration_us"`
	Err         string  `json:"error,omitempty"`
}

// DocumentResult collects a document's stage results.
type DocumentResult struct {
	Doc    string        `json:"doc"`
	Path   string        `json:"path"`
	Stages []StageResult `json:"stages"`
	Err    string        `json:"error,omitempty"`
}

// Manifest describes one run end to end. It is serialized to
// manifest.json under the output root.
type Manifest struct {
	RunID     string           `json:"run_id"`
	Started   time.Time        `json:"started"`
	Finished  time.Time        `json:"finished"`
	Documents []DocumentResult `json:"documents"`
	Failures  int              `json:"failures"`
}

// Pipeline runs documents through the fixed stage order. It is
// single-threaded; concurrent runs against one output root are not
// supported.
type Pipeline struct {
	cfg      *config.Config
	log      *slog.Logger
	ledger   *ledger.Ledger
	cleaner  *textclean.Cleaner
	renderer *tablemd.Renderer

	// open and openGeom are swappable so tests can drive the pipeline
	// without PDFs. open favors text fidelity, openGeom favors the
	// geometry the lines table strategy needs.
	open     func(string) (pdf.Document, error)
	openGeom func(string) (pdf.Document, error)
}

// New builds a pipeline. logger nil means slog's default; led nil
// disables run recording.
func New(cfg *config.Config, logger *slog.Logger, led *ledger.Ledger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		log:      logger,
		ledger:   led,
		cleaner:  textclean.NewCleaner(nil),
		renderer: tablemd.NewRenderer(nil),
		open:     pdf.OpenAny,
		openGeom: pdf.OpenGeometry,
	}
}

// DocName is the artifact-naming stem of a document path.
func DocName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run processes a single document through every enabled stage. The
// returned error is the document's first stage failure, classified by
// the sentinel errors.
func (p *Pipeline) Run(ctx context.Context, docPath string) (DocumentResult, error) {
	m, docErrs, err := p.runBatch(ctx, []string{docPath})
	if err != nil {
		return DocumentResult{}, err
	}
	return m.Documents[0], docErrs[0]
}

// RunBatch processes documents sequentially with per-document error
// isolation: one document's failure never aborts the rest. The manifest
// is always written, and mirrored to the ledger when configured.
func (p *Pipeline) RunBatch(ctx context.Context, docPaths []string) (Manifest, error) {
	m, _, err := p.runBatch(ctx, docPaths)
	return m, err
}

// runBatch is the shared batch core. docErrs holds one entry per
// processed document, nil for successes, preserving sentinel chains.
func (p *Pipeline) runBatch(ctx context.Context, docPaths []string) (Manifest, []error, error) {
	m := Manifest{RunID: uuid.NewString(), Started: time.Now()}
	p.log.Info("run started", "run_id", m.RunID, "documents", len(docPaths))

	if p.ledger != nil {
		if err := p.ledger.BeginRun(m.RunID); err != nil {
			p.log.Warn("ledger begin run", "error", err)
		}
	}

	if err := p.resetOutputs(); err != nil {
		return m, nil, err
	}

	var docErrs []error
	for _, docPath := range docPaths {
		if err := ctx.Err(); err != nil {
			m.Finished = time.Now()
			return m, docErrs, err
		}
		res, err := p.runDoc(ctx, m.RunID, docPath)
		if err != nil {
			m.Failures++
		}
		docErrs = append(docErrs, err)
		m.Documents = append(m.Documents, res)
	}
	m.Finished = time.Now()

	if p.ledger != nil {
		if err := p.ledger.FinishRun(m.RunID, len(m.Documents), m.Failures); err != nil {
			p.log.Warn("ledger finish run", "error", err)
		}
	}
	if err := p.writeManifest(m); err != nil {
		return m, docErrs, err
	}

	p.log.Info("run finished",
		"run_id", m.RunID,
		"documents", len(m.Documents),
		"failures", m.Failures,
		"elapsed", m.Finished.Sub(m.Started).Round(time.Millisecond))
	return m, docErrs, nil
}

// resetOutputs clears the artifact directories owned by the enabled
// steps once per run, so a re-run never mixes artifacts from a previous
// extraction. Notice files survive, logs are never touched.
func (p *Pipeline) resetOutputs() error {
	selectors := []struct {
		step     string
		selector string
	}{
		{config.StepText, workspace.SelectText},
		{config.StepTables, workspace.SelectTables},
		{config.StepAssemble, workspace.SelectDistilled},
	}
	for _, s := range selectors {
		if !p.cfg.HasStep(s.step) {
			continue
		}
		if err := workspace.Reset(p.cfg.OutputRoot, s.selector); err != nil {
			return fmt.Errorf("%w: reset %s: %w", ErrWrite, s.selector, err)
		}
	}
	return nil
}

// runDoc executes the fixed stage order for one document. Stage
// failures are recorded and later stages still run; only a missing
// input document skips processing entirely.
func (p *Pipeline) runDoc(ctx context.Context, runID, docPath string) (DocumentResult, error) {
	docName := DocName(docPath)
	res := DocumentResult{Doc: docName, Path: docPath}
	log := p.log.With("doc", docName)

	if _, err := os.Stat(docPath); err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrInputMissing, docPath)
		sr := StageResult{Stage: StageText, Doc: docName, Err: wrapped.Error()}
		res.Stages = append(res.Stages, sr)
		res.Err = wrapped.Error()
		p.mirror(runID, sr)
		log.Error("skipping document", "error", wrapped)
		return res, wrapped
	}

	stages := []struct {
		name string
		step string
		when func() bool
		fn   func() (StageResult, error)
	}{
		{
			name: StageText,
			step: config.StepText,
			fn:   func() (StageResult, error) { return p.stageText(docPath, docName) },
		},
		{
			name: StageCleanText,
			step: config.StepText,
			fn:   func() (StageResult, error) { return p.stageCleanText(docName) },
		},
		{
			name: StageTables,
			step: config.StepTables,
			fn:   func() (StageResult, error) { return p.stageTables(docPath, docName) },
		},
		{
			name: StageCleanTables,
			step: config.StepTables,
			when: func() bool { return len(p.tableArtifacts(docName)) > 0 },
			fn:   func() (StageResult, error) { return p.stageCleanTables(docName) },
		},
		{
			// Re-clean page text so assembly never sees artifacts a
			// partial earlier run left dirty.
			name: StageCleanText,
			step: config.StepAssemble,
			fn:   func() (StageResult, error) { return p.stageCleanText(docName) },
		},
		{
			name: StageAssemble,
			step: config.StepAssemble,
			fn:   func() (StageResult, error) { return p.stageAssemble(docPath, docName) },
		},
		{
			name: StageCleanAssembled,
			step: config.StepAssemble,
			fn:   func() (StageResult, error) { return p.stageCleanAssembled(docName) },
		},
	}

	var docErr error
	for _, st := range stages {
		if !p.cfg.HasStep(st.step) {
			continue
		}
		if st.when != nil && !st.when() {
			log.Debug("stage skipped", "stage", st.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Err = err.Error()
			return res, err
		}

		start := time.Now()
		sr, err := st.fn()
		sr.Stage = st.name
		sr.Doc = docName
		sr.DurationUs = time.Since(start).Microseconds()
		sr.Reduction = reduction(sr.OriginalLen, sr.CleanedLen)

		if err != nil {
			sr.Err = err.Error()
			if docErr == nil {
				docErr = err
				res.Err = err.Error()
			}
			log.Error("stage failed", "stage", st.name, "error", err)
		} else {
			log.Info("stage complete",
				"stage", st.name,
				"artifacts", sr.Artifacts,
				"reduction_pct", sr.Reduction)
		}

		res.Stages = append(res.Stages, sr)
		p.mirror(runID, sr)
	}
	return res, docErr
}

// mirror records a stage result in the ledger when one is configured.
func (p *Pipeline) mirror(runID string, sr StageResult) {
	if p.ledger == nil {
		return
	}
	err := p.ledger.Record(ledger.StageResult{
		RunID:        runID,
		Doc:          sr.Doc,
		Stage:        sr.Stage,
		OriginalLen:  sr.OriginalLen,
		CleanedLen:   sr.CleanedLen,
		ReductionPct: sr.Reduction,
		DurationUs:   sr.DurationUs,
		Error:        sr.Err,
	})
	if err != nil {
		p.log.Warn("ledger record", "error", err)
	}
}

func (p *Pipeline) writeManifest(m Manifest) error {
	data, err := sonic.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := workspace.EnsureDir(p.cfg.OutputRoot); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := filepath.Join(p.cfg.OutputRoot, "manifest.json")
	if err := workspace.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: manifest: %w", ErrWrite, err)
	}
	return nil
}

// reduction is the percentage of content removed across a stage,
// rounded to two decimals. Negative means the stage grew the text.
func reduction(original, cleaned int) float64 {
	if original == 0 {
		return 0
	}
	pct := float64(original-cleaned) / float64(original) * 100
	return math.Round(pct*100) / 100
}
