package pdf

import (
	"reflect"
	"testing"
)

// fakePage provides a Page backed by hand-placed objects.
type fakePage struct {
	number  int
	width   float64
	height  float64
	objects Objects
}

func (p *fakePage) GetPageNumber() int { return p.number }
func (p *fakePage) GetWidth() float64  { return p.width }
func (p *fakePage) GetHeight() float64 { return p.height }
func (p *fakePage) GetRotation() int   { return 0 }

func (p *fakePage) GetBBox() BoundingBox {
	return BoundingBox{X1: p.width, Y1: p.height}
}

func (p *fakePage) GetObjects() Objects { return p.objects }

func (p *fakePage) ExtractText(opts ...TextExtractionOption) string {
	config := newTextExtractionConfig(opts)
	return organizeText(p.objects.Chars, config.XTolerance, config.YTolerance)
}

func (p *fakePage) ExtractWords(opts ...WordExtractionOption) []Word {
	return organizeWords(p.objects.Chars, newWordExtractionConfig(opts))
}

func (p *fakePage) ExtractTables(opts ...TableExtractionOption) []Table {
	return newTableExtractor(p, opts...).ExtractTables()
}

// gridLines draws the rules for a table spanning the given columns and
// row boundaries.
func gridLines(colXs []float64, rowYs []float64) []LineObject {
	var lines []LineObject

	left, right := colXs[0], colXs[len(colXs)-1]
	bottom, top := rowYs[0], rowYs[len(rowYs)-1]

	for _, y := range rowYs {
		lines = append(lines, LineObject{X0: left, Y0: y, X1: right, Y1: y})
	}
	for _, x := range colXs {
		lines = append(lines, LineObject{X0: x, Y0: bottom, X1: x, Y1: top})
	}

	return lines
}

func ruledTablePage() *fakePage {
	objects := Objects{
		Lines: gridLines([]float64{100, 300, 500}, []float64{640, 660, 680, 700}),
	}

	cells := []struct {
		text string
		x, y float64
	}{
		{"Name", 110, 685}, {"Price", 310, 685},
		{"Apple", 110, 665}, {"10", 310, 665},
		{"Pear", 110, 645}, {"20", 310, 645},
	}
	for _, c := range cells {
		objects.Chars = append(objects.Chars, placeChars(c.text, c.x, c.y, 10)...)
	}

	return &fakePage{number: 1, width: 612, height: 792, objects: objects}
}

func TestExtractRuledTable(t *testing.T) {
	page := ruledTablePage()

	tables := page.ExtractTables()
	if len(tables) != 1 {
		t.Fatalf("ExtractTables() found %d tables, want 1", len(tables))
	}

	table := tables[0]
	wantRows := [][]string{
		{"Name", "Price"},
		{"Apple", "10"},
		{"Pear", "20"},
	}
	if !reflect.DeepEqual(table.Rows, wantRows) {
		t.Errorf("rows = %v, want %v", table.Rows, wantRows)
	}

	if table.Page != 1 {
		t.Errorf("Page = %d, want 1", table.Page)
	}
	if table.Strategy != StrategyLines {
		t.Errorf("Strategy = %q, want %q", table.Strategy, StrategyLines)
	}
	if !table.HasHeader {
		t.Error("HasHeader = false, want true")
	}
	if table.ColumnCount() != 2 {
		t.Errorf("ColumnCount() = %d, want 2", table.ColumnCount())
	}
}

func TestExtractRuledTableTooFewRows(t *testing.T) {
	page := ruledTablePage()

	// Raising the minimum above the table's three rows drops it.
	tables := page.ExtractTables(WithMinTableSize(4))
	if len(tables) != 0 {
		t.Errorf("ExtractTables() found %d tables, want 0", len(tables))
	}
}

func TestExtractRuledTableIgnoresBlankGrids(t *testing.T) {
	page := &fakePage{
		number: 1, width: 612, height: 792,
		objects: Objects{
			Lines: gridLines([]float64{100, 300, 500}, []float64{640, 660, 680, 700}),
		},
	}

	if tables := page.ExtractTables(); len(tables) != 0 {
		t.Errorf("grid with no text produced %d tables, want 0", len(tables))
	}
}

func TestExtractRowRectTable(t *testing.T) {
	objects := Objects{
		Rects: []RectObject{
			{X0: 100, Y0: 700, X1: 500, Y1: 720, NonStroking: true},
			{X0: 100, Y0: 680, X1: 500, Y1: 700, NonStroking: true},
			{X0: 100, Y0: 660, X1: 500, Y1: 680, NonStroking: true},
		},
	}

	cells := []struct {
		text string
		x, y float64
	}{
		{"Name", 110, 706}, {"Price", 310, 706},
		{"Apple", 110, 686}, {"10", 310, 686},
		{"Pear", 110, 666}, {"20", 310, 666},
	}
	for _, c := range cells {
		objects.Chars = append(objects.Chars, placeChars(c.text, c.x, c.y, 10)...)
	}

	page := &fakePage{number: 2, width: 612, height: 792, objects: objects}

	tables := page.ExtractTables()
	if len(tables) != 1 {
		t.Fatalf("ExtractTables() found %d tables, want 1", len(tables))
	}

	table := tables[0]
	wantRows := [][]string{
		{"Name", "Price"},
		{"Apple", "10"},
		{"Pear", "20"},
	}
	if !reflect.DeepEqual(table.Rows, wantRows) {
		t.Errorf("rows = %v, want %v", table.Rows, wantRows)
	}

	if table.Page != 2 {
		t.Errorf("Page = %d, want 2", table.Page)
	}
	if table.BBox.Y1 != 720 || table.BBox.Y0 != 660 {
		t.Errorf("BBox Y span %.1f-%.1f, want 660.0-720.0", table.BBox.Y0, table.BBox.Y1)
	}
}

func TestExtractTextAlignedTable(t *testing.T) {
	var chars []CharObject
	rows := []struct {
		left, right string
		y           float64
	}{
		{"Name", "Price", 700},
		{"Apple", "10", 680},
		{"Pear", "20", 660},
	}
	for _, row := range rows {
		chars = append(chars, placeChars(row.left, 100, row.y, 10)...)
		chars = append(chars, placeChars(row.right, 300, row.y, 10)...)
	}

	page := &fakePage{number: 3, width: 612, height: 792, objects: Objects{Chars: chars}}

	tables := page.ExtractTables(WithStrategy(StrategyText))
	if len(tables) != 1 {
		t.Fatalf("ExtractTables() found %d tables, want 1", len(tables))
	}

	table := tables[0]
	wantRows := [][]string{
		{"Name", "Price"},
		{"Apple", "10"},
		{"Pear", "20"},
	}
	if !reflect.DeepEqual(table.Rows, wantRows) {
		t.Errorf("rows = %v, want %v", table.Rows, wantRows)
	}

	if table.Strategy != StrategyText {
		t.Errorf("Strategy = %q, want %q", table.Strategy, StrategyText)
	}
	if !table.HasHeader {
		t.Error("HasHeader = false, want true")
	}
}

func TestExtractTextAlignedTableNeedsColumns(t *testing.T) {
	// A single left-aligned column of words is prose, not a table.
	var chars []CharObject
	for i, word := range []string{"one", "two", "three", "four"} {
		chars = append(chars, placeChars(word, 100, 700-float64(i)*20, 10)...)
	}

	page := &fakePage{number: 1, width: 612, height: 792, objects: Objects{Chars: chars}}

	if tables := page.ExtractTables(WithStrategy(StrategyText)); len(tables) != 0 {
		t.Errorf("single column produced %d tables, want 0", len(tables))
	}
}

func TestHasHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want bool
	}{
		{
			name: "header with data rows",
			rows: [][]string{{"Name", "Price"}, {"Apple", "10"}},
			want: true,
		},
		{
			name: "blank cell beside a labeled one",
			rows: [][]string{{"Name", ""}, {"Apple", "10"}},
			want: true,
		},
		{
			name: "single row with labels",
			rows: [][]string{{"Name", "Price"}},
			want: true,
		},
		{
			name: "entirely blank first row",
			rows: [][]string{{"", "  "}, {"Apple", "10"}},
			want: false,
		},
		{
			name: "no rows",
			rows: nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasHeaderRow(tt.rows); got != tt.want {
				t.Errorf("hasHeaderRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDropEmptyColumns(t *testing.T) {
	rows := [][]string{
		{"a", "", "b"},
		{"c", " ", "d"},
	}

	got := dropEmptyColumns(rows)
	want := [][]string{
		{"a", "b"},
		{"c", "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dropEmptyColumns() = %v, want %v", got, want)
	}
}

func TestCellTextMultiline(t *testing.T) {
	te := newTableExtractor(&fakePage{number: 1, width: 612, height: 792})

	var chars []CharObject
	chars = append(chars, placeChars("top", 100, 690, 10)...)
	chars = append(chars, placeChars("low", 100, 670, 10)...)

	got := te.cellText(BoundingBox{X0: 90, Y0: 660, X1: 200, Y1: 710}, chars)
	want := "top\nlow"
	if got != want {
		t.Errorf("cellText() = %q, want %q", got, want)
	}
}
