package workspace

import (
	"fmt"
	"path/filepath"
)

// Artifact subdirectories of an output root, one per stage family.
const (
	TextDirName      = "text"
	TablesDirName    = "tables"
	DistilledDirName = "distilled"
	LogsDirName      = "logs"
)

// Reset selectors.
const (
	SelectAll       = "all"
	SelectText      = "text"
	SelectTables    = "tables"
	SelectDistilled = "distilled"
)

// Reset clears the selected artifact subtree(s) under root, creating any
// that are missing. Selector "all" covers every artifact directory; logs
// are never reset. Notice files survive in place.
func Reset(root, selector string) error {
	var names []string
	switch selector {
	case SelectAll:
		names = []string{TextDirName, TablesDirName, DistilledDirName}
	case SelectText:
		names = []string{TextDirName}
	case SelectTables:
		names = []string{TablesDirName}
	case SelectDistilled:
		names = []string{DistilledDirName}
	default:
		return fmt.Errorf("unknown reset selector %q", selector)
	}

	for _, name := range names {
		if err := ResetDir(filepath.Join(root, name)); err != nil {
			return err
		}
	}
	return nil
}
