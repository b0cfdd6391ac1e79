package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsNoticeFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"README", true},
		{"readme.md", true},
		{"Readme.TXT", true},
		{"NOTICE", true},
		{"page_1.txt", false},
		{"readme.bak", false},
	}

	for _, tt := range tests {
		if got := IsNoticeFile(tt.name); got != tt.want {
			t.Errorf("IsNoticeFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResetDir(t *testing.T) {
	dir := t.TempDir()

	mustWrite(t, filepath.Join(dir, "README.md"), "# keep me\n")
	mustWrite(t, filepath.Join(dir, "doc_page_1.txt"), "stale artifact")
	mustWrite(t, filepath.Join(dir, "doc_page_2.txt"), "stale artifact")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "nested", "junk.md"), "stale")

	if err := ResetDir(dir); err != nil {
		t.Fatalf("ResetDir: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the notice file to survive, got %d entries", len(entries))
	}
	if entries[0].Name() != "README.md" {
		t.Errorf("surviving entry = %q, want README.md", entries[0].Name())
	}

	content, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# keep me\n" {
		t.Errorf("notice file content changed: %q", content)
	}
}

func TestResetDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "text")
	if err := ResetDir(dir); err != nil {
		t.Fatalf("ResetDir on missing dir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("ResetDir did not create %s: %v", dir, err)
	}
}

func TestSnapshotFirstWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_page_1.txt")
	mustWrite(t, path, "original content")

	backup, err := Snapshot(path)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if backup != path+".bak" {
		t.Errorf("backup path = %q, want %q", backup, path+".bak")
	}

	// Mutate the artifact, then snapshot again. The first snapshot must win.
	mustWrite(t, path, "cleaned content")
	if _, err := Snapshot(path); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}

	got, err := os.ReadFile(backup)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original content" {
		t.Errorf("backup content = %q, want the pre-clean original", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "distilled", "doc_distilled.md")

	if err := WriteFileAtomic(path, []byte("# Doc\n")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Doc\n" {
		t.Errorf("content = %q", got)
	}

	// Overwrite must replace the full content, and no temp files may remain.
	if err := WriteFileAtomic(path, []byte("# Doc v2\n")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Doc v2\n" {
		t.Errorf("content after overwrite = %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "doc_distilled.md" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
