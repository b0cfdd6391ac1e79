// Package assemble joins per-page cleaned text and rendered tables into a
// single markdown document body.
package assemble

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docfold/pdfdistill/pkg/textclean"
)

// PageText is one page's cleaned text with its 1-based page number.
type PageText struct {
	PageNumber int
	Content    string
}

const (
	// tocPlaceholder stands in until a table of contents generator exists.
	tocPlaceholder = "* [Generated table of contents will be placed here]"

	emptyPageNotice = "_No extractable text content on this page._"
)

// Document assembles pages and per-page table blocks into the final
// markdown body: a title heading, a table-of-contents section, then one
// "## Page N" section per page with its tables under a "### Tables"
// sub-heading. Pages may arrive in any order; output order is always
// ascending page number. Pages without text get an explicit notice so a
// reader can tell an image-only page from a dropped one.
func Document(title string, pages []PageText, tables map[int][]string) string {
	sorted := make([]PageText, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PageNumber < sorted[j].PageNumber
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("## Table of Contents\n\n")
	b.WriteString(tocPlaceholder)
	b.WriteString("\n")

	for i, page := range sorted {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "\n## Page %d\n\n", page.PageNumber)

		content := strings.TrimSpace(page.Content)
		if content == "" {
			content = emptyPageNotice
		}
		b.WriteString(content)
		b.WriteString("\n")

		if blocks := tables[page.PageNumber]; len(blocks) > 0 {
			fmt.Fprintf(&b, "\n### Tables (page %d)\n", page.PageNumber)
			for _, block := range blocks {
				b.WriteString("\n")
				b.WriteString(strings.TrimSpace(block))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// AppendTableFiles appends already-rendered table artifacts to an assembled
// body, each under a heading named for its file. Blank artifacts are
// skipped, as are files whose bytes defeat the encoding fallback chain;
// other read failures abort.
func AppendTableFiles(content string, paths []string) (string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(content)

	for _, path := range sorted {
		table, _, err := textclean.ReadFileFallback(path)
		if err != nil {
			if errors.Is(err, textclean.ErrUndecodable) {
				continue
			}
			return "", fmt.Errorf("reading table artifact: %w", err)
		}
		if strings.TrimSpace(table) == "" {
			continue
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fmt.Fprintf(&b, "\n\n# %s\n\n%s\n", name, strings.TrimSpace(table))
	}

	return b.String(), nil
}
