package pdf

import (
	"sort"
	"strings"
)

// Word is a run of characters separated from its neighbors by a
// horizontal gap.
type Word struct {
	Text       string
	X0         float64
	Y0         float64
	X1         float64
	Y1         float64
	Characters []CharObject
}

// WordExtractionOption modifies how characters are grouped into words.
type WordExtractionOption func(*wordExtractionConfig)

type wordExtractionConfig struct {
	XTolerance float64
	YTolerance float64
}

// WithWordXTolerance sets the horizontal gap that splits words.
func WithWordXTolerance(tolerance float64) WordExtractionOption {
	return func(c *wordExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithWordYTolerance sets the vertical tolerance for grouping words into lines.
func WithWordYTolerance(tolerance float64) WordExtractionOption {
	return func(c *wordExtractionConfig) {
		c.YTolerance = tolerance
	}
}

func newWordExtractionConfig(opts []WordExtractionOption) *wordExtractionConfig {
	config := &wordExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// sortCharsReadingOrder returns a copy of chars sorted top line first,
// left to right within a line. PDF coordinates grow upward, so the top
// line has the largest Y.
func sortCharsReadingOrder(chars []CharObject, yTolerance float64) []CharObject {
	sorted := make([]CharObject, len(chars))
	copy(sorted, chars)

	sort.SliceStable(sorted, func(i, j int) bool {
		if abs(sorted[i].Y0-sorted[j].Y0) > yTolerance {
			return sorted[i].Y0 > sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	return sorted
}

// groupCharsIntoLines splits reading-ordered chars into lines wherever
// the Y position moves by more than the tolerance.
func groupCharsIntoLines(chars []CharObject, yTolerance float64) [][]CharObject {
	if len(chars) == 0 {
		return nil
	}

	var lines [][]CharObject
	currentLine := []CharObject{chars[0]}
	currentY := chars[0].Y0

	for _, char := range chars[1:] {
		if abs(char.Y0-currentY) > yTolerance {
			lines = append(lines, currentLine)
			currentLine = []CharObject{char}
			currentY = char.Y0
		} else {
			currentLine = append(currentLine, char)
		}
	}
	lines = append(lines, currentLine)

	return lines
}

// lineText joins one line of characters into a string, inserting a
// space wherever the horizontal gap indicates a word break.
func lineText(lineChars []CharObject, xTolerance float64) string {
	if len(lineChars) == 0 {
		return ""
	}

	sort.SliceStable(lineChars, func(i, j int) bool {
		return lineChars[i].X0 < lineChars[j].X0
	})

	var b strings.Builder
	lastX1 := lineChars[0].X0

	for i, char := range lineChars {
		if i > 0 && char.X0-lastX1 > xTolerance {
			b.WriteByte(' ')
		}
		b.WriteString(char.Text)
		lastX1 = char.X1
	}

	return b.String()
}

// wordsFromLine splits one line of characters into words. A word break
// is a gap wider than the tolerance or wider than a third of the next
// character, whichever triggers first.
func wordsFromLine(lineChars []CharObject, xTolerance float64) []Word {
	if len(lineChars) == 0 {
		return nil
	}

	sort.SliceStable(lineChars, func(i, j int) bool {
		return lineChars[i].X0 < lineChars[j].X0
	})

	var words []Word
	currentWord := []CharObject{lineChars[0]}

	for i := 1; i < len(lineChars); i++ {
		char := lineChars[i]
		gap := char.X0 - lineChars[i-1].X1
		if gap > xTolerance || gap > char.Width*0.3 {
			words = append(words, newWord(currentWord))
			currentWord = []CharObject{char}
		} else {
			currentWord = append(currentWord, char)
		}
	}
	words = append(words, newWord(currentWord))

	return words
}

// newWord builds a Word spanning a run of characters.
func newWord(chars []CharObject) Word {
	var text strings.Builder
	minX, minY := chars[0].X0, chars[0].Y0
	maxX, maxY := chars[0].X1, chars[0].Y1

	for _, char := range chars {
		text.WriteString(char.Text)
		minX = min(minX, char.X0)
		minY = min(minY, char.Y0)
		maxX = max(maxX, char.X1)
		maxY = max(maxY, char.Y1)
	}

	return Word{
		Text:       text.String(),
		X0:         minX,
		Y0:         minY,
		X1:         maxX,
		Y1:         maxY,
		Characters: chars,
	}
}

// organizeText renders characters as newline-joined text lines in
// reading order.
func organizeText(chars []CharObject, xTolerance, yTolerance float64) string {
	if len(chars) == 0 {
		return ""
	}

	sorted := sortCharsReadingOrder(chars, yTolerance)

	var lines []string
	for _, line := range groupCharsIntoLines(sorted, yTolerance) {
		if text := lineText(line, xTolerance); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n")
}

// organizeWords groups characters into positioned words in reading order.
func organizeWords(chars []CharObject, config *wordExtractionConfig) []Word {
	if len(chars) == 0 {
		return nil
	}

	sorted := sortCharsReadingOrder(chars, config.YTolerance)

	var words []Word
	for _, line := range groupCharsIntoLines(sorted, config.YTolerance) {
		words = append(words, wordsFromLine(line, config.XTolerance)...)
	}

	return words
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
