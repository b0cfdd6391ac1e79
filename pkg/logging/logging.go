// Package logging installs the process-wide structured logger: readable
// text on stderr plus a JSON run log on disk, with retention cleanup of
// old run logs.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// filePrefix names run logs so cleanup never touches foreign files.
const filePrefix = "pdfdistill_"

// Options configure Setup.
type Options struct {
	// Dir receives the JSON run log. Empty means console only.
	Dir string
	// Level filters console output. The run log always captures debug.
	Level string
	// MaxAgeDays removes run logs older than this. Zero disables.
	MaxAgeDays int
	// MaxFiles caps the number of retained run logs. Zero disables.
	MaxFiles int
}

// Setup wires slog's default logger. It returns the run log path (empty
// when console only) and a function that closes the log file.
func Setup(opts Options) (string, func() error, error) {
	level := ParseLevel(opts.Level)
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if opts.Dir == "" {
		slog.SetDefault(slog.New(console))
		return "", func() error { return nil }, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create log dir %s: %w", opts.Dir, err)
	}
	CleanupOldLogs(opts.Dir, opts.MaxAgeDays, opts.MaxFiles)

	name := fmt.Sprintf("%s%s.log", filePrefix, time.Now().Format("20060102_150405"))
	path := filepath.Join(opts.Dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(teeHandler{handlers: []slog.Handler{console, file}}))
	return path, f.Close, nil
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CleanupOldLogs removes stale run logs, first by age, then trimming the
// oldest files down to maxFiles. It returns the number removed. Removal
// failures are skipped so a locked file never blocks startup.
func CleanupOldLogs(dir string, maxAgeDays, maxFiles int) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	type logFile struct {
		path string
		mod  time.Time
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{filepath.Join(dir, name), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	removed := 0
	if maxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
		kept := files[:0]
		for _, f := range files {
			if f.mod.Before(cutoff) && os.Remove(f.path) == nil {
				removed++
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}
	if maxFiles > 0 && len(files) > maxFiles {
		for _, f := range files[:len(files)-maxFiles] {
			if os.Remove(f.path) == nil {
				removed++
			}
		}
	}
	return removed
}

// teeHandler forwards records to every inner handler that accepts the
// record's level.
type teeHandler struct {
	handlers []slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return teeHandler{handlers: hs}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithGroup(name)
	}
	return teeHandler{handlers: hs}
}
