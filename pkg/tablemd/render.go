// Package tablemd renders extracted tables as markdown pipe tables and
// exports them to JSON and CSV. Cell text is repaired on the way out:
// unresolvable glyph references are dropped, encoding artifacts fixed, and
// whitespace flattened so every cell stays on its row.
package tablemd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/docfold/pdfdistill/pkg/pdf"
	"github.com/docfold/pdfdistill/pkg/textclean"
)

// reCID matches glyph references the extractor could not resolve.
var reCID = regexp.MustCompile(`\(cid:\d+\)`)

// reSeparatorCell matches one cell of a table separator row, with optional
// alignment colons.
var reSeparatorCell = regexp.MustCompile(`^:?-+:?$`)

// Renderer converts extracted tables into markdown artifacts.
type Renderer struct {
	cleaner *textclean.Cleaner
}

// NewRenderer returns a Renderer cleaning cells with the given Cleaner. A
// nil cleaner uses the default rule catalog.
func NewRenderer(cleaner *textclean.Cleaner) *Renderer {
	if cleaner == nil {
		cleaner = textclean.NewCleaner(nil)
	}
	return &Renderer{cleaner: cleaner}
}

// Render produces the markdown artifact for one table: a title naming the
// table's index, source document and source page, a header row, a separator
// row of the same width, and one line per data row. A table whose first row
// is blank gets synthetic "Column N" headers and keeps every row as data.
func (r *Renderer) Render(table pdf.Table, index int, docName string) string {
	headers, body := r.headerAndBody(table)

	var b strings.Builder
	fmt.Fprintf(&b, "# Table %d from %s", index, docName)
	if table.Page > 0 {
		fmt.Fprintf(&b, " (page %d)", table.Page)
	}
	b.WriteString("\n\n")

	writeRow(&b, headers)
	writeSeparator(&b, len(headers))
	for _, row := range body {
		writeRow(&b, row)
	}

	return b.String()
}

// headerAndBody splits a table into header cells and data rows,
// synthesizing headers when the table has none. Cells are cleaned and rows
// padded to a uniform width.
func (r *Renderer) headerAndBody(table pdf.Table) ([]string, [][]string) {
	width := table.ColumnCount()

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		cleaned := make([]string, width)
		for i := 0; i < width && i < len(row); i++ {
			cleaned[i] = r.CleanCell(row[i])
		}
		rows = append(rows, cleaned)
	}

	if table.HasHeader && len(rows) > 0 {
		return rows[0], rows[1:]
	}

	headers := make([]string, width)
	for i := range headers {
		headers[i] = fmt.Sprintf("Column %d", i+1)
	}
	return headers, rows
}

// CleanCell repairs one cell's text. Newlines from multi-line cells
// collapse to spaces so the cell cannot break out of its row.
func (r *Renderer) CleanCell(cell string) string {
	return r.cleaner.Basic(reCID.ReplaceAllString(cell, ""))
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(cell))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func writeSeparator(b *strings.Builder, width int) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
}

// escapeCell keeps literal pipes in cell content from being read as cell
// boundaries.
func escapeCell(cell string) string {
	return strings.ReplaceAll(cell, "|", `\|`)
}

// reSourcePage extracts the owning page from a rendered artifact's title.
var reSourcePage = regexp.MustCompile(`^# Table \d+ from .+ \(page (\d+)\)$`)

// SourcePage reads the owning page number back out of a rendered table
// artifact's title line. Artifacts rendered without page provenance
// report false.
func SourcePage(content string) (int, bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := reSourcePage.FindStringSubmatch(line)
		if m == nil {
			return 0, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// WithoutTitle returns the artifact body below its title line, for
// inlining a rendered table under another heading.
func WithoutTitle(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
		break
	}
	return strings.TrimSpace(content)
}

// Parse reads a markdown pipe table back into its cell grid, header row
// first. Separator rows are skipped, escaped pipes restored, and lines that
// are not table rows ignored.
func Parse(content string) [][]string {
	var rows [][]string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}

		cells := splitRow(line)
		if len(cells) == 0 || isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}

	return rows
}

// splitRow splits a pipe-table line into trimmed cells, honoring escaped
// pipes. The boundary pipes contribute empty fragments at both ends, which
// are dropped.
func splitRow(line string) []string {
	var cells []string
	var cell strings.Builder

	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cell.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(line[i])
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))

	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if !reSeparatorCell.MatchString(cell) {
			return false
		}
	}
	return true
}
