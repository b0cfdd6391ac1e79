// Package ledger persists per-stage pipeline results to SQLite so runs
// can be inspected and compared after the fact.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the runs and stage_results tables. Applied by Open.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started INTEGER NOT NULL,
	finished INTEGER,
	documents INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS stage_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	doc TEXT NOT NULL,
	stage TEXT NOT NULL,
	original_len INTEGER NOT NULL,
	cleaned_len INTEGER NOT NULL,
	reduction_pct REAL NOT NULL,
	duration_us INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stage_results_run ON stage_results(run_id);
CREATE INDEX IF NOT EXISTS idx_stage_results_doc ON stage_results(doc);
`

// StageResult is one stage outcome for one document.
type StageResult struct {
	RunID        string
	Doc          string
	Stage        string
	OriginalLen  int
	CleanedLen   int
	ReductionPct float64
	DurationUs   int64
	Error        string
	Timestamp    int64 // unix seconds, stamped by Record when zero
}

// Summary aggregates one run's stage results.
type Summary struct {
	RunID         string
	Documents     int
	Stages        int
	Failures      int
	TotalOriginal int64
	TotalCleaned  int64
}

// Ledger writes synchronously; the pipeline processes one document at a
// time so there is no write contention to buffer against.
type Ledger struct {
	db *sql.DB
}

// Open opens the ledger database, creating parent directories and the
// schema as needed.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ledger: mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun registers a run before its first document is processed.
func (l *Ledger) BeginRun(runID string) error {
	_, err := l.db.Exec(`INSERT INTO runs (run_id, started) VALUES (?, ?)`,
		runID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("ledger: begin run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end together with its document and failure
// counts.
func (l *Ledger) FinishRun(runID string, documents, failures int) error {
	_, err := l.db.Exec(
		`UPDATE runs SET finished = ?, documents = ?, failures = ? WHERE run_id = ?`,
		time.Now().Unix(), documents, failures, runID)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	return nil
}

// Record persists one stage result.
func (l *Ledger) Record(r StageResult) error {
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().Unix()
	}
	_, err := l.db.Exec(`INSERT INTO stage_results
		(run_id, doc, stage, original_len, cleaned_len, reduction_pct, duration_us, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Doc, r.Stage, r.OriginalLen, r.CleanedLen,
		r.ReductionPct, r.DurationUs, r.Error, r.Timestamp)
	if err != nil {
		return fmt.Errorf("ledger: record stage: %w", err)
	}
	return nil
}

// Summary aggregates the run's stage results for the end-of-run report.
func (l *Ledger) Summary(runID string) (Summary, error) {
	s := Summary{RunID: runID}
	err := l.db.QueryRow(`SELECT
			COUNT(*),
			COUNT(DISTINCT doc),
			COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(original_len), 0),
			COALESCE(SUM(cleaned_len), 0)
		FROM stage_results WHERE run_id = ?`, runID).
		Scan(&s.Stages, &s.Documents, &s.Failures, &s.TotalOriginal, &s.TotalCleaned)
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: summarize run: %w", err)
	}
	return s, nil
}
