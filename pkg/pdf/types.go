package pdf

import (
	"time"
)

// Table extraction strategies.
const (
	// StrategyLines detects tables from ruling lines and cell rectangles.
	StrategyLines = "lines"
	// StrategyText detects tables from vertically aligned word columns.
	StrategyText = "text"
)

// BoundingBox represents a rectangular area in page coordinates.
// PDF coordinates grow upward, so Y1 is the top edge.
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Bottom
	X1 float64 // Right
	Y1 float64 // Top
}

// Width returns the width of the bounding box.
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box.
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Contains checks if a point is within the bounding box.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Intersects checks if two bounding boxes overlap.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 || b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Metadata holds the document information dictionary.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
}

// Objects is the collection of positioned objects on a page.
type Objects struct {
	Chars  []CharObject
	Lines  []LineObject
	Rects  []RectObject
	Curves []CurveObject
}

// CharObject is a single positioned character.
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	Width    float64
	Height   float64
	Color    Color
}

// BBox returns the character's bounding box.
func (c CharObject) BBox() BoundingBox {
	return BoundingBox{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1}
}

// LineObject is a stroked line segment.
type LineObject struct {
	X0          float64
	Y0          float64
	X1          float64
	Y1          float64
	Width       float64
	StrokeColor Color
}

// BBox returns the line's bounding box with normalized corners.
func (l LineObject) BBox() BoundingBox {
	return BoundingBox{
		X0: min(l.X0, l.X1),
		Y0: min(l.Y0, l.Y1),
		X1: max(l.X0, l.X1),
		Y1: max(l.Y0, l.Y1),
	}
}

// RectObject is a stroked or filled rectangle.
type RectObject struct {
	X0          float64
	Y0          float64
	X1          float64
	Y1          float64
	Width       float64
	StrokeColor Color
	FillColor   Color
	NonStroking bool
}

// BBox returns the rectangle's bounding box.
func (r RectObject) BBox() BoundingBox {
	return BoundingBox{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}

// CurveObject is a Bezier curve approximated by its control points.
type CurveObject struct {
	Points      []Point
	StrokeColor Color
	Width       float64
}

// BBox returns the curve's bounding box.
func (c CurveObject) BBox() BoundingBox {
	if len(c.Points) == 0 {
		return BoundingBox{}
	}

	minX, minY := c.Points[0].X, c.Points[0].Y
	maxX, maxY := minX, minY

	for _, p := range c.Points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	return BoundingBox{X0: minX, Y0: minY, X1: maxX, Y1: maxY}
}

// Color represents an RGBA color.
type Color struct {
	R, G, B uint8
	A       uint8
}

// Point represents a 2D point.
type Point struct {
	X, Y float64
}

// Table is an extracted table with rows in reading order, top first.
type Table struct {
	Page      int
	Strategy  string
	Rows      [][]string
	BBox      BoundingBox
	HasHeader bool
}

// ColumnCount returns the widest row length.
func (t Table) ColumnCount() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// TextExtractionOption modifies text extraction behavior.
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	Layout     bool
	XTolerance float64
	YTolerance float64
}

// WithLayout enables layout-aware text extraction.
func WithLayout(enabled bool) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.Layout = enabled
	}
}

// WithXTolerance sets the horizontal gap that separates words.
func WithXTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithYTolerance sets the vertical tolerance for grouping characters into lines.
func WithYTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.YTolerance = tolerance
	}
}

func newTextExtractionConfig(opts []TextExtractionOption) *textExtractionConfig {
	config := &textExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// TableExtractionOption modifies table extraction behavior.
type TableExtractionOption func(*tableExtractionConfig)

type tableExtractionConfig struct {
	Strategy      string
	MinTableSize  int
	TextTolerance float64
	SnapTolerance float64
}

// WithStrategy selects the table detection strategy, StrategyLines or StrategyText.
func WithStrategy(strategy string) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.Strategy = strategy
	}
}

// WithMinTableSize sets the minimum row count for a detected table.
func WithMinTableSize(size int) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.MinTableSize = size
	}
}

// WithTextTolerance sets the vertical tolerance for grouping cell text.
func WithTextTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.TextTolerance = tolerance
	}
}

// WithSnapTolerance sets the tolerance for snapping nearby ruling lines together.
func WithSnapTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.SnapTolerance = tolerance
	}
}
