// Package workspace manages the on-disk layout shared by pipeline stages:
// stage output directories, the reset contract between runs, and crash-safe
// artifact writes with pre-mutation snapshots.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// noticeNames are files that survive every reset, matched case-insensitively.
var noticeNames = []string{"readme", "readme.md", "readme.txt", "notice"}

// IsNoticeFile reports whether name is a human-authored notice file that
// reset operations must preserve.
func IsNoticeFile(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range noticeNames {
		if lower == n {
			return true
		}
	}
	return false
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// ResetDir removes everything inside dir except notice files, creating the
// directory if it does not exist. Stages call this before writing so a
// re-run never mixes fresh artifacts with stale ones.
func ResetDir(dir string) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if IsNoticeFile(entry.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("reset %s: %w", dir, err)
		}
	}
	return nil
}

// BackupPath returns the snapshot name used for path's pre-clean backup.
func BackupPath(path string) string {
	return path + ".bak"
}

// Snapshot copies path's current content to its backup name and returns the
// backup path. An existing backup is left untouched so the first pre-clean
// snapshot survives repeated cleaning of the same artifact within a run.
func Snapshot(path string) (string, error) {
	backup := BackupPath(path)

	if _, err := os.Stat(backup); err == nil {
		return backup, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat backup %s: %w", backup, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for snapshot: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(backup)
	if err != nil {
		return "", fmt.Errorf("create snapshot %s: %w", backup, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", backup, err)
	}
	return backup, nil
}

// WriteFileAtomic writes data to path so that a crash never leaves a partial
// file visible: the content goes to a temp file in the same directory which
// is then renamed over the target.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}
