package pdf

import (
	"math"
	"sort"
)

// FloatTolerance is the tolerance for comparing line coordinates.
const FloatTolerance = 0.1

// pageMargin is how close to a page edge ruling lines may sit before
// they are treated as decoration rather than table structure.
const pageMargin = 20.0

// DeduplicateLines returns lines with coordinate-level duplicates
// removed. The input slice is not modified.
func DeduplicateLines(lines []LineObject) []LineObject {
	if len(lines) == 0 {
		return lines
	}

	sorted := make([]LineObject, len(lines))
	copy(sorted, lines)

	sort.Slice(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y0-sorted[j].Y0) > FloatTolerance {
			return sorted[i].Y0 < sorted[j].Y0
		}
		if math.Abs(sorted[i].X0-sorted[j].X0) > FloatTolerance {
			return sorted[i].X0 < sorted[j].X0
		}
		if math.Abs(sorted[i].Y1-sorted[j].Y1) > FloatTolerance {
			return sorted[i].Y1 < sorted[j].Y1
		}
		return sorted[i].X1 < sorted[j].X1
	})

	result := []LineObject{sorted[0]}
	for _, curr := range sorted[1:] {
		if !linesEqual(result[len(result)-1], curr) {
			result = append(result, curr)
		}
	}

	return result
}

// linesEqual reports whether two lines cover the same segment in either
// direction.
func linesEqual(a, b LineObject) bool {
	sameDirection := math.Abs(a.X0-b.X0) < FloatTolerance &&
		math.Abs(a.Y0-b.Y0) < FloatTolerance &&
		math.Abs(a.X1-b.X1) < FloatTolerance &&
		math.Abs(a.Y1-b.Y1) < FloatTolerance

	reversedDirection := math.Abs(a.X0-b.X1) < FloatTolerance &&
		math.Abs(a.Y0-b.Y1) < FloatTolerance &&
		math.Abs(a.X1-b.X0) < FloatTolerance &&
		math.Abs(a.Y1-b.Y0) < FloatTolerance

	return sameDirection || reversedDirection
}

// FilterPageBorderLines removes lines that run along a page edge.
func FilterPageBorderLines(lines []LineObject, pageWidth, pageHeight float64) []LineObject {
	result := []LineObject{}

	for _, line := range lines {
		atLeftEdge := math.Abs(line.X0) < 1 && math.Abs(line.X1) < 1
		atRightEdge := math.Abs(line.X0-pageWidth) < 1 && math.Abs(line.X1-pageWidth) < 1
		atTopEdge := math.Abs(line.Y0-pageHeight) < 1 && math.Abs(line.Y1-pageHeight) < 1
		atBottomEdge := math.Abs(line.Y0) < 1 && math.Abs(line.Y1) < 1

		if !atLeftEdge && !atRightEdge && !atTopEdge && !atBottomEdge {
			result = append(result, line)
		}
	}

	return result
}

// FilterTableLines keeps lines that can form table structure: strictly
// horizontal or vertical, and inside the page margins.
func FilterTableLines(lines []LineObject, pageWidth, pageHeight float64) []LineObject {
	result := []LineObject{}

	for _, line := range lines {
		isHorizontal := math.Abs(line.Y0-line.Y1) < FloatTolerance
		isVertical := math.Abs(line.X0-line.X1) < FloatTolerance

		inMargins := line.X0 > pageMargin && line.X1 > pageMargin &&
			line.X0 < pageWidth-pageMargin && line.X1 < pageWidth-pageMargin &&
			line.Y0 > pageMargin && line.Y1 > pageMargin &&
			line.Y0 < pageHeight-pageMargin && line.Y1 < pageHeight-pageMargin

		if (isHorizontal || isVertical) && inMargins {
			result = append(result, line)
		}
	}

	return result
}

// ConsolidateTableLines merges overlapping or touching collinear
// segments into single lines. Diagonal lines are dropped.
func ConsolidateTableLines(lines []LineObject) []LineObject {
	if len(lines) == 0 {
		return lines
	}

	var horizontal, vertical []LineObject

	for _, line := range lines {
		if math.Abs(line.Y0-line.Y1) < FloatTolerance {
			horizontal = append(horizontal, line)
		} else if math.Abs(line.X0-line.X1) < FloatTolerance {
			vertical = append(vertical, line)
		}
	}

	horizontal = consolidateHorizontalLines(horizontal)
	vertical = consolidateVerticalLines(vertical)

	return append(horizontal, vertical...)
}

func consolidateHorizontalLines(lines []LineObject) []LineObject {
	if len(lines) == 0 {
		return lines
	}

	sort.Slice(lines, func(i, j int) bool {
		if math.Abs(lines[i].Y0-lines[j].Y0) > FloatTolerance {
			return lines[i].Y0 < lines[j].Y0
		}
		return lines[i].X0 < lines[j].X0
	})

	result := []LineObject{}
	current := lines[0]

	for _, line := range lines[1:] {
		if math.Abs(line.Y0-current.Y0) < FloatTolerance &&
			math.Abs(line.Y1-current.Y1) < FloatTolerance {
			// Merge when segments overlap or nearly touch.
			if line.X0 <= current.X1+1 && line.X1 >= current.X0-1 {
				current.X0 = math.Min(current.X0, line.X0)
				current.X1 = math.Max(current.X1, line.X1)
				if line.Width > current.Width {
					current.Width = line.Width
				}
				continue
			}
		}

		result = append(result, current)
		current = line
	}

	return append(result, current)
}

func consolidateVerticalLines(lines []LineObject) []LineObject {
	if len(lines) == 0 {
		return lines
	}

	sort.Slice(lines, func(i, j int) bool {
		if math.Abs(lines[i].X0-lines[j].X0) > FloatTolerance {
			return lines[i].X0 < lines[j].X0
		}
		return lines[i].Y0 < lines[j].Y0
	})

	result := []LineObject{}
	current := lines[0]

	for _, line := range lines[1:] {
		if math.Abs(line.X0-current.X0) < FloatTolerance &&
			math.Abs(line.X1-current.X1) < FloatTolerance {
			if line.Y0 <= current.Y1+1 && line.Y1 >= current.Y0-1 {
				current.Y0 = math.Min(current.Y0, line.Y0)
				current.Y1 = math.Max(current.Y1, line.Y1)
				if line.Width > current.Width {
					current.Width = line.Width
				}
				continue
			}
		}

		result = append(result, current)
		current = line
	}

	return append(result, current)
}

// DeduplicateRectangles returns rectangles with coordinate-level
// duplicates removed. The input slice is not modified.
func DeduplicateRectangles(rects []RectObject) []RectObject {
	if len(rects) == 0 {
		return rects
	}

	sorted := make([]RectObject, len(rects))
	copy(sorted, rects)

	sort.Slice(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y0-sorted[j].Y0) > FloatTolerance {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	result := []RectObject{sorted[0]}
	for _, curr := range sorted[1:] {
		if !rectsEqual(result[len(result)-1], curr) {
			result = append(result, curr)
		}
	}

	return result
}

func rectsEqual(a, b RectObject) bool {
	return math.Abs(a.X0-b.X0) < FloatTolerance &&
		math.Abs(a.Y0-b.Y0) < FloatTolerance &&
		math.Abs(a.X1-b.X1) < FloatTolerance &&
		math.Abs(a.Y1-b.Y1) < FloatTolerance
}
