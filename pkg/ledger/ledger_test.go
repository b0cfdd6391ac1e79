package ledger

import (
	"path/filepath"
	"testing"
)

func openMemory(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndSummary(t *testing.T) {
	l := openMemory(t)

	if err := l.BeginRun("run-1"); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	results := []StageResult{
		{RunID: "run-1", Doc: "a.pdf", Stage: "text", OriginalLen: 1000, CleanedLen: 900, ReductionPct: 10, DurationUs: 1200},
		{RunID: "run-1", Doc: "a.pdf", Stage: "tables", OriginalLen: 400, CleanedLen: 400, DurationUs: 300},
		{RunID: "run-1", Doc: "b.pdf", Stage: "text", Error: "input missing", DurationUs: 50},
	}
	for _, r := range results {
		if err := l.Record(r); err != nil {
			t.Fatalf("Record(%s/%s): %v", r.Doc, r.Stage, err)
		}
	}
	if err := l.FinishRun("run-1", 2, 1); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	s, err := l.Summary("run-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Stages != 3 {
		t.Errorf("Stages = %d, want 3", s.Stages)
	}
	if s.Documents != 2 {
		t.Errorf("Documents = %d, want 2", s.Documents)
	}
	if s.Failures != 1 {
		t.Errorf("Failures = %d, want 1", s.Failures)
	}
	if s.TotalOriginal != 1400 {
		t.Errorf("TotalOriginal = %d, want 1400", s.TotalOriginal)
	}
	if s.TotalCleaned != 1300 {
		t.Errorf("TotalCleaned = %d, want 1300", s.TotalCleaned)
	}
}

func TestSummaryUnknownRun(t *testing.T) {
	l := openMemory(t)

	s, err := l.Summary("absent")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Stages != 0 || s.Documents != 0 || s.Failures != 0 {
		t.Errorf("unknown run should aggregate to zero, got %+v", s)
	}
}

func TestSummaryIsolatesRuns(t *testing.T) {
	l := openMemory(t)

	if err := l.Record(StageResult{RunID: "run-1", Doc: "a.pdf", Stage: "text", OriginalLen: 10, CleanedLen: 10}); err != nil {
		t.Fatal(err)
	}
	if err := l.Record(StageResult{RunID: "run-2", Doc: "a.pdf", Stage: "text", OriginalLen: 99, CleanedLen: 99}); err != nil {
		t.Fatal(err)
	}

	s, err := l.Summary("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Stages != 1 || s.TotalOriginal != 10 {
		t.Errorf("run-1 summary leaked rows from other runs: %+v", s)
	}
}

func TestRecordStampsTimestamp(t *testing.T) {
	l := openMemory(t)

	if err := l.Record(StageResult{RunID: "run-1", Doc: "a.pdf", Stage: "text"}); err != nil {
		t.Fatal(err)
	}

	var ts int64
	if err := l.db.QueryRow(`SELECT timestamp FROM stage_results`).Scan(&ts); err != nil {
		t.Fatal(err)
	}
	if ts == 0 {
		t.Error("Record should stamp a timestamp when none is set")
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Record(StageResult{RunID: "run-1", Doc: "a.pdf", Stage: "text", OriginalLen: 5, CleanedLen: 5}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	s, err := reopened.Summary("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Stages != 1 {
		t.Errorf("Stages after reopen = %d, want 1", s.Stages)
	}
}
