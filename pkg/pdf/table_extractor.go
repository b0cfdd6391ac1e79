package pdf

import (
	"math"
	"sort"
	"strings"
)

// tableExtractor detects and extracts tables from a single page using
// one of two strategies: ruling lines or aligned text columns.
type tableExtractor struct {
	page          Page
	strategy      string
	minTableSize  int
	textTolerance float64
	snapTolerance float64
}

// newTableExtractor creates a table extractor with default settings.
func newTableExtractor(page Page, opts ...TableExtractionOption) *tableExtractor {
	config := &tableExtractionConfig{
		Strategy:      StrategyLines,
		MinTableSize:  3,
		TextTolerance: 3.0,
		SnapTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}

	return &tableExtractor{
		page:          page,
		strategy:      config.Strategy,
		minTableSize:  config.MinTableSize,
		textTolerance: config.TextTolerance,
		snapTolerance: config.SnapTolerance,
	}
}

// ExtractTables runs the configured detection strategy and stamps each
// table with its page number, strategy, and header flag.
func (te *tableExtractor) ExtractTables() []Table {
	var tables []Table

	switch te.strategy {
	case StrategyText:
		tables = te.extractTextAlignedTables()
	default:
		tables = te.extractRuledTables(te.page.GetObjects())
	}

	for i := range tables {
		tables[i].Page = te.page.GetPageNumber()
		tables[i].Strategy = te.strategy
		tables[i].HasHeader = hasHeaderRow(tables[i].Rows)
	}

	return tables
}

// hasHeaderRow reports whether the first row looks like a header: any
// first-row cell is non-blank. An entirely blank first row means the
// renderer must synthesize column names instead.
func hasHeaderRow(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	for _, cell := range rows[0] {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

// tableHasContent reports whether any cell holds non-blank text. Grid
// regions paired from unrelated line groups produce all-blank tables.
func tableHasContent(rows [][]string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return true
			}
		}
	}
	return false
}

// extractRuledTables detects tables drawn with ruling lines and cell
// rectangles.
func (te *tableExtractor) extractRuledTables(objects Objects) []Table {
	rects := DeduplicateRectangles(objects.Rects)

	// Shaded row bands are a common layout: a stack of aligned
	// rectangles, one per row, with no explicit column lines.
	if len(rects) >= te.minTableSize {
		if rowTable := te.tableFromRowRects(rects, objects.Chars); rowTable != nil {
			return []Table{*rowTable}
		}
	}

	lines := DeduplicateLines(objects.Lines)
	lines = FilterPageBorderLines(lines, te.page.GetWidth(), te.page.GetHeight())
	lines = FilterTableLines(lines, te.page.GetWidth(), te.page.GetHeight())
	lines = ConsolidateTableLines(lines)

	hLines, vLines := te.splitAxisLines(lines)

	// Rectangle edges contribute ruling lines too.
	for _, rect := range rects {
		hLines = append(hLines,
			LineObject{X0: rect.X0, Y0: rect.Y0, X1: rect.X1, Y1: rect.Y0, Width: rect.Width},
			LineObject{X0: rect.X0, Y0: rect.Y1, X1: rect.X1, Y1: rect.Y1, Width: rect.Width})
		vLines = append(vLines,
			LineObject{X0: rect.X0, Y0: rect.Y0, X1: rect.X0, Y1: rect.Y1, Width: rect.Width},
			LineObject{X0: rect.X1, Y0: rect.Y0, X1: rect.X1, Y1: rect.Y1, Width: rect.Width})
	}

	tables := []Table{}
	for _, region := range te.findGridRegions(hLines, vLines) {
		table := te.tableFromGrid(region, objects.Chars)
		if len(table.Rows) >= te.minTableSize && tableHasContent(table.Rows) {
			tables = append(tables, table)
		}
	}

	return tables
}

// splitAxisLines separates lines into horizontal and vertical sets.
func (te *tableExtractor) splitAxisLines(lines []LineObject) ([]LineObject, []LineObject) {
	var hLines, vLines []LineObject

	for _, line := range lines {
		if math.Abs(line.Y1-line.Y0) < te.snapTolerance {
			hLines = append(hLines, line)
		} else if math.Abs(line.X1-line.X0) < te.snapTolerance {
			vLines = append(vLines, line)
		}
	}

	return hLines, vLines
}

// gridRegion is a candidate table area bounded by ruling lines, with
// cell boxes laid out top row first.
type gridRegion struct {
	BBox  BoundingBox
	Cells [][]BoundingBox
}

// findGridRegions clusters horizontal lines into row bands and pairs
// each band with the vertical lines that cross it. Vertically stacked
// tables end up in separate bands.
func (te *tableExtractor) findGridRegions(hLines, vLines []LineObject) []gridRegion {
	regions := []gridRegion{}

	for _, band := range te.groupRowBands(hLines) {
		if len(band) < 2 {
			continue
		}

		minY, maxY := band[0].Y0, band[0].Y0
		for _, line := range band {
			minY = min(minY, line.Y0)
			maxY = max(maxY, line.Y0)
		}

		crossing := te.crossingLines(vLines, minY, maxY)
		if len(crossing) < 2 {
			continue
		}

		if region := te.newGridRegion(band, crossing); region != nil {
			regions = append(regions, *region)
		}
	}

	return regions
}

// groupRowBands clusters horizontal lines by Y position, starting a new
// band wherever consecutive lines sit more than one row height apart.
func (te *tableExtractor) groupRowBands(lines []LineObject) [][]LineObject {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]LineObject, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Y0 < sorted[j].Y0
	})

	// Taller than any plausible table row, smaller than the gap
	// between stacked tables.
	const gapThreshold = 40.0

	groups := [][]LineObject{}
	currentGroup := []LineObject{sorted[0]}

	for i := 1; i < len(sorted); i++ {
		if math.Abs(sorted[i].Y0-sorted[i-1].Y0) > gapThreshold {
			groups = append(groups, currentGroup)
			currentGroup = []LineObject{sorted[i]}
		} else {
			currentGroup = append(currentGroup, sorted[i])
		}
	}

	return append(groups, currentGroup)
}

// crossingLines returns the vertical lines whose span overlaps the row
// band. Cell borders drawn per row qualify as well as full-height
// column rules.
func (te *tableExtractor) crossingLines(vLines []LineObject, minY, maxY float64) []LineObject {
	var crossing []LineObject

	for _, line := range vLines {
		bottom := min(line.Y0, line.Y1)
		top := max(line.Y0, line.Y1)
		if bottom <= maxY+te.snapTolerance && top >= minY-te.snapTolerance {
			crossing = append(crossing, line)
		}
	}

	return crossing
}

// newGridRegion builds the cell grid for a pairing of line groups.
// Returns nil when there are not enough distinct positions to form
// cells. PDF coordinates grow upward, so the grid is walked from the
// highest Y band down to keep rows in reading order.
func (te *tableExtractor) newGridRegion(hLines, vLines []LineObject) *gridRegion {
	hPositions := te.snappedPositions(hLines, true)
	vPositions := te.snappedPositions(vLines, false)

	if len(hPositions) < 2 || len(vPositions) < 2 {
		return nil
	}

	sort.Float64s(hPositions)
	sort.Float64s(vPositions)

	rowCount := len(hPositions) - 1
	colCount := len(vPositions) - 1

	cells := make([][]BoundingBox, rowCount)
	for i := 0; i < rowCount; i++ {
		top := hPositions[len(hPositions)-1-i]
		bottom := hPositions[len(hPositions)-2-i]

		cells[i] = make([]BoundingBox, colCount)
		for j := 0; j < colCount; j++ {
			cells[i][j] = BoundingBox{
				X0: vPositions[j],
				Y0: bottom,
				X1: vPositions[j+1],
				Y1: top,
			}
		}
	}

	return &gridRegion{
		BBox: BoundingBox{
			X0: vPositions[0],
			Y0: hPositions[0],
			X1: vPositions[len(vPositions)-1],
			Y1: hPositions[len(hPositions)-1],
		},
		Cells: cells,
	}
}

// snappedPositions returns the distinct line positions after snapping
// to the snap tolerance grid.
func (te *tableExtractor) snappedPositions(lines []LineObject, horizontal bool) []float64 {
	posSet := make(map[float64]bool)

	for _, line := range lines {
		pos := line.X0
		if horizontal {
			pos = line.Y0
		}
		posSet[math.Round(pos/te.snapTolerance)*te.snapTolerance] = true
	}

	positions := make([]float64, 0, len(posSet))
	for pos := range posSet {
		positions = append(positions, pos)
	}

	return positions
}

// tableFromGrid extracts cell text for every cell in a grid region.
func (te *tableExtractor) tableFromGrid(region gridRegion, chars []CharObject) Table {
	rows := make([][]string, len(region.Cells))

	for i, row := range region.Cells {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = te.cellText(cell, chars)
		}
	}

	return Table{
		Rows: rows,
		BBox: region.BBox,
	}
}

// cellText collects the characters whose center falls inside the cell
// and renders them top line first, with spaces on word gaps and
// newlines between cell lines.
func (te *tableExtractor) cellText(cell BoundingBox, chars []CharObject) string {
	var cellChars []CharObject

	for _, char := range chars {
		bbox := char.BBox()
		centerX := (bbox.X0 + bbox.X1) / 2
		centerY := (bbox.Y0 + bbox.Y1) / 2
		if cell.Contains(centerX, centerY) {
			cellChars = append(cellChars, char)
		}
	}

	sort.SliceStable(cellChars, func(i, j int) bool {
		if math.Abs(cellChars[i].Y0-cellChars[j].Y0) > te.textTolerance {
			return cellChars[i].Y0 > cellChars[j].Y0
		}
		return cellChars[i].X0 < cellChars[j].X0
	})

	var b strings.Builder
	var lastY, lastX float64

	for i, char := range cellChars {
		if i > 0 {
			if lastY-char.Y0 > te.textTolerance {
				b.WriteByte('\n')
			} else if char.X0-lastX > te.textTolerance {
				b.WriteByte(' ')
			}
		}
		b.WriteString(char.Text)
		lastY = char.Y0
		lastX = char.X1
	}

	return b.String()
}

// tableFromRowRects extracts a table from a stack of horizontally
// aligned row rectangles, the layout used for shaded row bands.
func (te *tableExtractor) tableFromRowRects(rects []RectObject, chars []CharObject) *Table {
	if len(rects) < te.minTableSize {
		return nil
	}

	minX, maxX := rects[0].X0, rects[0].X1
	for _, rect := range rects {
		if math.Abs(rect.X0-minX) > te.snapTolerance || math.Abs(rect.X1-maxX) > te.snapTolerance {
			return nil
		}
	}

	// Top row first: PDF coordinates grow upward.
	sorted := make([]RectObject, len(rects))
	copy(sorted, rects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Y1 > sorted[j].Y1
	})

	columns := te.columnStarts(chars, minX, maxX)
	if len(columns) < 2 {
		return nil
	}

	rows := [][]string{}
	for _, rect := range sorted {
		if row := te.rowFromRect(rect, chars, columns); len(row) > 0 {
			rows = append(rows, row)
		}
	}

	if len(rows) < te.minTableSize {
		return nil
	}

	rows = dropEmptyColumns(rows)

	return &Table{
		Rows: rows,
		BBox: BoundingBox{
			X0: minX,
			Y0: sorted[len(sorted)-1].Y0,
			X1: maxX,
			Y1: sorted[0].Y1,
		},
	}
}

// columnStarts finds column X positions from word start frequency
// inside the table's horizontal span. Word starts rather than bare
// character positions keep long cell text from minting columns.
func (te *tableExtractor) columnStarts(chars []CharObject, minX, maxX float64) []float64 {
	var spanChars []CharObject
	for _, char := range chars {
		if char.X0 >= minX && char.X1 <= maxX {
			spanChars = append(spanChars, char)
		}
	}

	xCounts := make(map[float64]int)
	for _, word := range organizeWords(spanChars, newWordExtractionConfig(nil)) {
		x := math.Round(word.X0/te.snapTolerance) * te.snapTolerance
		xCounts[x]++
	}

	// A position must repeat across rows to count as a column start.
	const minCount = 3

	columns := []float64{}
	for x, count := range xCounts {
		if count >= minCount {
			columns = append(columns, x)
		}
	}

	sort.Float64s(columns)
	return columns
}

// rowFromRect assigns the characters inside one row rectangle to
// columns, left to right.
func (te *tableExtractor) rowFromRect(rect RectObject, chars []CharObject, columns []float64) []string {
	rowChars := []CharObject{}
	for _, char := range chars {
		centerY := (char.Y0 + char.Y1) / 2
		if centerY < rect.Y0 || centerY > rect.Y1 {
			continue
		}
		if char.X0 < rect.X0-te.snapTolerance || char.X1 > rect.X1+te.snapTolerance {
			continue
		}
		rowChars = append(rowChars, char)
	}

	sort.SliceStable(rowChars, func(i, j int) bool {
		return rowChars[i].X0 < rowChars[j].X0
	})

	row := make([]string, len(columns))
	for _, char := range rowChars {
		if idx := te.columnIndexFor(char.X0, columns); idx >= 0 {
			row[idx] += char.Text
		}
	}

	return row
}

// columnIndexFor finds which column an X position belongs to.
func (te *tableExtractor) columnIndexFor(x float64, columns []float64) int {
	for i, colX := range columns {
		if i == len(columns)-1 {
			if x >= colX-te.snapTolerance {
				return i
			}
			continue
		}
		if x >= colX-te.snapTolerance && x < columns[i+1]-te.snapTolerance {
			return i
		}
	}
	return -1
}

// dropEmptyColumns removes columns whose cells are blank in every row.
func dropEmptyColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}

	numCols := len(rows[0])
	hasContent := make([]bool, numCols)

	for _, row := range rows {
		for i, cell := range row {
			if i < numCols && strings.TrimSpace(cell) != "" {
				hasContent[i] = true
			}
		}
	}

	result := make([][]string, len(rows))
	for rowIdx, row := range rows {
		kept := []string{}
		for i, cell := range row {
			if i < numCols && hasContent[i] {
				kept = append(kept, cell)
			}
		}
		result[rowIdx] = kept
	}

	return result
}

// extractTextAlignedTables detects a table from recurring word column
// positions when no ruling lines are drawn.
func (te *tableExtractor) extractTextAlignedTables() []Table {
	words := te.page.ExtractWords()
	if len(words) == 0 {
		return nil
	}

	rows := te.groupWordsIntoRows(words)
	columns := te.alignedColumns(rows)

	if len(columns) < 2 || len(rows) < te.minTableSize {
		return nil
	}

	table := te.tableFromWordRows(rows, columns)
	if len(table.Rows) < te.minTableSize {
		return nil
	}

	return []Table{table}
}

// wordRow is one horizontal band of words.
type wordRow struct {
	Words []Word
	BBox  BoundingBox
	Y     float64
}

// groupWordsIntoRows clusters words into horizontal bands, top first.
func (te *tableExtractor) groupWordsIntoRows(words []Word) []wordRow {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y0 > sorted[j].Y0
	})

	rows := []wordRow{}
	current := wordRow{Words: []Word{sorted[0]}, Y: sorted[0].Y0}

	for i := 1; i < len(sorted); i++ {
		if math.Abs(sorted[i].Y0-current.Y) < te.textTolerance {
			current.Words = append(current.Words, sorted[i])
		} else {
			rows = append(rows, te.finishWordRow(current))
			current = wordRow{Words: []Word{sorted[i]}, Y: sorted[i].Y0}
		}
	}

	return append(rows, te.finishWordRow(current))
}

// finishWordRow sorts a row's words left to right and computes its
// bounding box.
func (te *tableExtractor) finishWordRow(row wordRow) wordRow {
	sort.SliceStable(row.Words, func(i, j int) bool {
		return row.Words[i].X0 < row.Words[j].X0
	})

	minX := row.Words[0].X0
	maxX := row.Words[len(row.Words)-1].X1
	minY := row.Words[0].Y0
	maxY := row.Words[0].Y1

	for _, word := range row.Words {
		minY = min(minY, word.Y0)
		maxY = max(maxY, word.Y1)
	}

	row.BBox = BoundingBox{X0: minX, Y0: minY, X1: maxX, Y1: maxY}
	return row
}

// alignedColumns finds X positions where words start in enough rows to
// form a column: at least two rows and at least 30% of them.
func (te *tableExtractor) alignedColumns(rows []wordRow) []float64 {
	if len(rows) < 2 {
		return nil
	}

	xCounts := make(map[float64]int)
	for _, row := range rows {
		for _, word := range row.Words {
			x := math.Round(word.X0/te.snapTolerance) * te.snapTolerance
			xCounts[x]++
		}
	}

	minCount := max(2, len(rows)*3/10)

	columns := []float64{}
	for x, count := range xCounts {
		if count >= minCount {
			columns = append(columns, x)
		}
	}

	sort.Float64s(columns)
	return columns
}

// tableFromWordRows assigns each row's words to the nearest column.
func (te *tableExtractor) tableFromWordRows(rows []wordRow, columns []float64) Table {
	bbox := rows[0].BBox
	for _, row := range rows[1:] {
		bbox.X0 = min(bbox.X0, row.BBox.X0)
		bbox.Y0 = min(bbox.Y0, row.BBox.Y0)
		bbox.X1 = max(bbox.X1, row.BBox.X1)
		bbox.Y1 = max(bbox.Y1, row.BBox.Y1)
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for _, word := range row.Words {
			idx := te.nearestColumn(word.X0, columns)
			if idx < 0 {
				continue
			}
			if cells[i][idx] != "" {
				cells[i][idx] += " "
			}
			cells[i][idx] += word.Text
		}
	}

	return Table{Rows: cells, BBox: bbox}
}

// nearestColumn finds the column whose start is closest to the word,
// within three snap tolerances.
func (te *tableExtractor) nearestColumn(wordX float64, columns []float64) int {
	bestCol := -1
	minDist := math.MaxFloat64

	for i, colX := range columns {
		dist := math.Abs(wordX - colX)
		if dist < minDist && dist < te.snapTolerance*3 {
			minDist = dist
			bestCol = i
		}
	}

	return bestCol
}
