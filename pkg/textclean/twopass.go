package textclean

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/docfold/pdfdistill/pkg/workspace"
)

// Stats describes one artifact's cleaning outcome.
type Stats struct {
	Path        string
	OriginalLen int
	CleanedLen  int
	FellBack    bool
	Encoding    string
}

// Reduction returns the percentage of content removed by cleaning, rounded
// to two decimal places. Negative values mean cleaning grew the text.
func (s Stats) Reduction() float64 {
	if s.OriginalLen == 0 {
		return 0
	}
	pct := float64(s.OriginalLen-s.CleanedLen) / float64(s.OriginalLen) * 100
	return math.Round(pct*100) / 100
}

// BinaryStrip is the first pass over a persisted artifact: unicode NFC
// normalization, line ending normalization, control character removal, and
// the table-safe denylist of known-corrupt byte sequences. Space runs left
// behind by removals are collapsed, except table alignment runs adjacent
// to a pipe delimiter.
func (c *Cleaner) BinaryStrip(content string) string {
	if content == "" {
		return ""
	}

	content = norm.NFC.String(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = c.reControl.ReplaceAllString(content, "")
	content = applyLiterals(content, c.rules.table)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(collapseNonPipeSpaces(line), " ")
	}
	return strings.Join(lines, "\n")
}

// ValidateMarkdown is the second pass: it repairs markup without ever
// removing prose. Heading, list and blockquote markers get their mandatory
// space, doubled heading markers collapse, horizontal rules normalize to
// ---, and table rows are re-padded to one space around each cell.
// Separator rows and fenced blocks pass through untouched.
func (c *Cleaner) ValidateMarkdown(content string) string {
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	inFence := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			lines[i] = trimmed
			continue
		}
		if inFence || trimmed == "" {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		if isPipeRow(trimmed) {
			lines[i] = indent + c.padTableRow(trimmed)
			continue
		}
		if c.reHRule.MatchString(trimmed) {
			lines[i] = "---"
			continue
		}
		lines[i] = indent + c.fixMarkupLine(trimmed)
	}
	return strings.Join(lines, "\n")
}

// CleanText runs the guarded cleanup for plain-text page artifacts:
// binary strip, then deep reconstruction, reverted to the gentle clean
// when the guard trips.
func (c *Cleaner) CleanText(content string) (string, bool) {
	cleaned := c.BinaryStrip(content)
	cleaned = c.Deep(cleaned)
	if rejectCleaned(content, cleaned) {
		return c.SimpleClean(content), true
	}
	return cleaned, false
}

// CleanTable runs the guarded cleanup for table artifacts. Cell text gets
// only the character-level fixes; rows and separators are preserved and
// re-padded, never reconstructed.
func (c *Cleaner) CleanTable(content string) (string, bool) {
	cleaned := c.BinaryStrip(content)
	cleaned = applyLiterals(cleaned, c.rules.encoding)

	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(collapseNonPipeSpaces(line), " ")
	}
	cleaned = strings.Join(lines, "\n")

	cleaned = c.ValidateMarkdown(cleaned)
	if rejectCleaned(content, cleaned) {
		return c.SimpleClean(content), true
	}
	return cleaned, false
}

// CleanMarkdown runs the full guarded cleanup for assembled markdown:
// binary strip, the aggressive markdown and text reconstruction, then
// markup validation, reverted to the gentle clean when the guard trips.
// Headings that reconstruction destroyed are re-appended so no section
// vanishes from the document.
func (c *Cleaner) CleanMarkdown(content string) (string, bool) {
	cleaned := c.BinaryStrip(content)
	headings := collectHeadings(cleaned)
	cleaned = c.MarkdownDeep(cleaned)
	cleaned = c.Deep(cleaned)
	cleaned = restoreHeadings(cleaned, headings)
	cleaned = c.ValidateMarkdown(cleaned)
	if rejectCleaned(content, cleaned) {
		return c.SimpleClean(content), true
	}
	return cleaned, false
}

// CleanTextFile cleans a page-text artifact in place.
func (c *Cleaner) CleanTextFile(path string) (Stats, error) {
	return c.cleanFile(path, c.CleanText)
}

// CleanTableFile cleans a table artifact in place.
func (c *Cleaner) CleanTableFile(path string) (Stats, error) {
	return c.cleanFile(path, c.CleanTable)
}

// CleanMarkdownFile cleans an assembled markdown artifact in place.
func (c *Cleaner) CleanMarkdownFile(path string) (Stats, error) {
	return c.cleanFile(path, c.CleanMarkdown)
}

// cleanFile reads an artifact through the encoding fallback chain, cleans
// it, and persists the result. The pre-clean content is snapshotted to a
// .bak file before the first mutation and the write itself is atomic, so
// a crash can never leave a half-cleaned artifact. Unchanged content is
// left alone.
func (c *Cleaner) cleanFile(path string, clean func(string) (string, bool)) (Stats, error) {
	content, encName, err := ReadFileFallback(path)
	if err != nil {
		return Stats{Path: path}, err
	}

	cleaned, fellBack := clean(content)
	if cleaned != "" && !strings.HasSuffix(cleaned, "\n") {
		cleaned += "\n"
	}

	stats := Stats{
		Path:        path,
		OriginalLen: len(content),
		CleanedLen:  len(cleaned),
		FellBack:    fellBack,
		Encoding:    encName,
	}

	if cleaned == content {
		return stats, nil
	}
	if _, err := workspace.Snapshot(path); err != nil {
		return stats, err
	}
	if err := workspace.WriteFileAtomic(path, []byte(cleaned)); err != nil {
		return stats, err
	}
	return stats, nil
}

// rejectCleaned reports whether cleaning removed so much that the result
// must be discarded: an emptied artifact, or less than a tenth of the
// original content surviving.
func rejectCleaned(original, cleaned string) bool {
	if strings.TrimSpace(cleaned) == "" {
		return strings.TrimSpace(original) != ""
	}
	return len(cleaned)*10 < len(original)
}

// isPipeRow reports whether a trimmed line is a pipe-delimited table row.
func isPipeRow(trimmed string) bool {
	return strings.HasPrefix(trimmed, "|") &&
		strings.HasSuffix(trimmed, "|") &&
		strings.Count(trimmed, "|") >= 2
}

// padTableRow rewrites a table row with exactly one space around each cell.
// Separator rows keep their dash runs so column alignment hints survive.
func (c *Cleaner) padTableRow(row string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(row, "|"), "|")
	cells := strings.Split(inner, "|")

	separator := true
	for _, cell := range cells {
		if !c.reSepCells.MatchString(strings.TrimSpace(cell)) {
			separator = false
			break
		}
	}
	if separator {
		return row
	}

	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// collapseNonPipeSpaces shortens interior whitespace runs to one space,
// except runs that touch a pipe delimiter, which carry table alignment.
func collapseNonPipeSpaces(line string) string {
	runes := []rune(line)
	var b strings.Builder
	b.Grow(len(line))

	for i := 0; i < len(runes); {
		r := runes[i]
		if r != ' ' && r != '\t' {
			b.WriteRune(r)
			i++
			continue
		}

		j := i
		for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t') {
			j++
		}

		prevPipe := i > 0 && runes[i-1] == '|'
		nextPipe := j < len(runes) && runes[j] == '|'
		if j-i >= 2 && !prevPipe && !nextPipe {
			b.WriteRune(' ')
		} else {
			for k := i; k < j; k++ {
				if runes[k] == '\t' {
					b.WriteRune(' ')
				} else {
					b.WriteRune(runes[k])
				}
			}
		}
		i = j
	}
	return b.String()
}
