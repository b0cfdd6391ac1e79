package pdf

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// contentStreamParser interprets a page's content stream operators and
// accumulates the characters, lines, rectangles, and curves they draw.
// Positions are reported in PDF page coordinates, origin bottom-left.
type contentStreamParser struct {
	ctx     *model.Context
	objects Objects

	graphicsState *graphicsState
	stateStack    []*graphicsState

	textState  *textState
	textMatrix matrix
	lineMatrix matrix

	currentPath []pathElement

	fonts map[string]*fontInfo
}

// graphicsState tracks the subset of the PDF graphics state that
// affects extracted geometry.
type graphicsState struct {
	CTM         matrix
	StrokeColor pdfColor
	FillColor   pdfColor
	LineWidth   float64
}

// textState carries the text parameters set by Tc, Tw, Tz, TL, Tf and
// Ts between text-showing operators.
type textState struct {
	Font      *fontInfo
	FontSize  float64
	CharSpace float64
	WordSpace float64
	Scale     float64
	Leading   float64
	Rise      float64
}

// fontInfo is the per-font state needed to decode show-text strings.
type fontInfo struct {
	Name      string
	Encoding  string
	ToUnicode *ToUnicodeCMap
}

type matrix struct {
	A, B, C, D, E, F float64
}

// pdfColor holds normalized color components before conversion to RGBA.
type pdfColor struct {
	ColorSpace string
	R, G, B    float64
}

type pathElement struct {
	kind   string // "moveto", "lineto", "curveto", "close"
	points []pdfPoint
}

type pdfPoint struct {
	X, Y float64
}

// newContentStreamParser prepares a parser for one page, loading the
// font resources the stream will reference.
func newContentStreamParser(ctx *model.Context, pageDict types.Dict) *contentStreamParser {
	p := &contentStreamParser{
		ctx: ctx,
		graphicsState: &graphicsState{
			CTM:         identityMatrix(),
			LineWidth:   1.0,
			StrokeColor: pdfColor{ColorSpace: "Gray"},
			FillColor:   pdfColor{ColorSpace: "Gray"},
		},
		textState: &textState{
			FontSize: 12,
			Scale:    100,
		},
		textMatrix: identityMatrix(),
		lineMatrix: identityMatrix(),
		fonts:      make(map[string]*fontInfo),
	}

	if resources := p.resolveDict(pageDict["Resources"]); resources != nil {
		p.extractFonts(resources)
	}

	return p
}

// resolveDict returns obj as a dictionary, following an indirect
// reference when necessary.
func (p *contentStreamParser) resolveDict(obj types.Object) types.Dict {
	switch v := obj.(type) {
	case types.Dict:
		return v
	case types.IndirectRef:
		dict, err := p.ctx.DereferenceDict(v)
		if err != nil {
			return nil
		}
		return dict
	case *types.IndirectRef:
		dict, err := p.ctx.DereferenceDict(*v)
		if err != nil {
			return nil
		}
		return dict
	}
	return nil
}

// streamContent returns the decoded bytes of a referenced stream, or
// nil if obj does not point at one.
func (p *contentStreamParser) streamContent(obj types.Object) []byte {
	var ref types.IndirectRef
	switch v := obj.(type) {
	case types.IndirectRef:
		ref = v
	case *types.IndirectRef:
		ref = *v
	default:
		return nil
	}

	streamDict, _, err := p.ctx.DereferenceStreamDict(ref)
	if err != nil || streamDict == nil {
		return nil
	}
	if len(streamDict.Content) == 0 {
		if err := streamDict.Decode(); err != nil {
			return nil
		}
	}
	return streamDict.Content
}

// extractFonts loads the page's font resources, including ToUnicode
// CMaps where present.
func (p *contentStreamParser) extractFonts(resources types.Dict) {
	fonts := p.resolveDict(resources["Font"])
	if fonts == nil {
		return
	}

	for name, ref := range fonts {
		fontDict := p.resolveDict(ref)
		if fontDict == nil {
			continue
		}

		info := &fontInfo{Name: name}

		if enc, ok := fontDict["Encoding"].(types.Name); ok {
			info.Encoding = string(enc)
		}

		if data := p.streamContent(fontDict["ToUnicode"]); len(data) > 0 {
			cmap := NewToUnicodeCMap()
			if err := cmap.Parse(data); err == nil {
				info.ToUnicode = cmap
			}
		}

		p.fonts[name] = info
	}
}

// Parse scans a decoded content stream and returns the objects it
// draws.
func (p *contentStreamParser) Parse(content []byte) Objects {
	tokens := tokenize(content)

	var operands []string
	for _, token := range tokens {
		if contentStreamOperators[token] {
			p.processOperator(token, operands)
			operands = operands[:0]
		} else {
			operands = append(operands, token)
		}
	}

	return p.objects
}

// contentStreamOperators is the set of tokens treated as operators.
// Every operator consumes the operands accumulated before it, whether
// or not the parser acts on it.
var contentStreamOperators = map[string]bool{
	// Text object and positioning.
	"BT": true, "ET": true,
	"Td": true, "TD": true, "Tm": true, "T*": true,

	// Text showing.
	"Tj": true, "TJ": true, "'": true, "\"": true,

	// Text state.
	"Tc": true, "Tw": true, "Tz": true, "TL": true,
	"Tf": true, "Tr": true, "Ts": true,

	// Graphics state.
	"q": true, "Q": true, "cm": true,
	"w": true, "J": true, "j": true, "M": true, "d": true,
	"ri": true, "i": true, "gs": true,

	// Path construction and painting.
	"m": true, "l": true, "c": true, "v": true, "y": true,
	"h": true, "re": true,
	"S": true, "s": true, "f": true, "F": true, "f*": true,
	"B": true, "B*": true, "b": true, "b*": true, "n": true,

	// Color.
	"CS": true, "cs": true, "SC": true, "SCN": true,
	"sc": true, "scn": true,
	"G": true, "g": true, "RG": true, "rg": true,
	"K": true, "k": true,

	// Clipping, compatibility, XObjects, marked content.
	"W": true, "W*": true,
	"BX": true, "EX": true,
	"Do": true,
	"MP": true, "DP": true, "BMC": true, "BDC": true, "EMC": true,
}

// tokenize splits a content stream into string, name, and bare tokens.
// String literals keep their delimiters so extractString can tell them
// from hex strings later.
func tokenize(content []byte) []string {
	var tokens []string
	reader := bytes.NewReader(content)

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		if isWhitespace(b) {
			continue
		}

		switch b {
		case '(':
			tokens = append(tokens, "("+readStringLiteral(reader)+")")

		case '<':
			next, _ := reader.ReadByte()
			if next == '<' {
				tokens = append(tokens, "<<")
			} else {
				reader.UnreadByte()
				tokens = append(tokens, "<"+readHexString(reader)+">")
			}

		case '>':
			next, _ := reader.ReadByte()
			if next == '>' {
				tokens = append(tokens, ">>")
			} else {
				reader.UnreadByte()
			}

		case '[':
			tokens = append(tokens, "[")
		case ']':
			tokens = append(tokens, "]")

		case '{', '}':
			// PostScript procedure braces, not used by any tracked
			// operator.

		case '/':
			tokens = append(tokens, "/"+readBareToken(reader))

		case '%':
			skipComment(reader)

		default:
			reader.UnreadByte()
			if token := readBareToken(reader); token != "" {
				tokens = append(tokens, token)
			}
		}
	}

	return tokens
}

// readStringLiteral consumes a parenthesized string, honoring nested
// parentheses and leaving escape sequences for unescapeString.
func readStringLiteral(reader *bytes.Reader) string {
	var b strings.Builder
	depth := 1

	for reader.Len() > 0 {
		c, err := reader.ReadByte()
		if err != nil {
			break
		}

		if c == '\\' {
			next, err := reader.ReadByte()
			if err != nil {
				break
			}
			b.WriteByte(c)
			b.WriteByte(next)
			continue
		}

		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				break
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// readHexString consumes characters up to the closing angle bracket.
func readHexString(reader *bytes.Reader) string {
	var b strings.Builder

	for reader.Len() > 0 {
		c, err := reader.ReadByte()
		if err != nil || c == '>' {
			break
		}
		if !isWhitespace(c) {
			b.WriteByte(c)
		}
	}

	return b.String()
}

// readBareToken consumes characters up to the next delimiter or
// whitespace.
func readBareToken(reader *bytes.Reader) string {
	var b strings.Builder

	for reader.Len() > 0 {
		c, err := reader.ReadByte()
		if err != nil {
			break
		}
		if isWhitespace(c) || isDelimiter(c) {
			reader.UnreadByte()
			break
		}
		b.WriteByte(c)
	}

	return b.String()
}

func skipComment(reader *bytes.Reader) {
	for reader.Len() > 0 {
		c, err := reader.ReadByte()
		if err != nil || c == '\n' || c == '\r' {
			break
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (p *contentStreamParser) processOperator(operator string, operands []string) {
	switch operator {
	case "BT":
		p.textMatrix = identityMatrix()
		p.lineMatrix = identityMatrix()

	case "Td":
		if len(operands) >= 2 {
			p.textMoveBy(parseFloat(operands[0]), parseFloat(operands[1]))
		}
	case "TD":
		if len(operands) >= 2 {
			p.textState.Leading = -parseFloat(operands[1])
			p.textMoveBy(parseFloat(operands[0]), parseFloat(operands[1]))
		}
	case "Tm":
		p.setTextMatrix(operands)
	case "T*":
		p.textMoveBy(0, -p.textState.Leading)

	case "Tj":
		p.showText(operands)
	case "TJ":
		p.showTextArray(operands)
	case "'":
		p.textMoveBy(0, -p.textState.Leading)
		p.showText(operands)
	case "\"":
		if n := len(operands); n >= 3 {
			p.textState.WordSpace = parseFloat(operands[n-3])
			p.textState.CharSpace = parseFloat(operands[n-2])
			p.textMoveBy(0, -p.textState.Leading)
			p.showText(operands[n-1:])
		}

	case "Tc":
		if len(operands) >= 1 {
			p.textState.CharSpace = parseFloat(operands[0])
		}
	case "Tw":
		if len(operands) >= 1 {
			p.textState.WordSpace = parseFloat(operands[0])
		}
	case "Tz":
		if len(operands) >= 1 {
			p.textState.Scale = parseFloat(operands[0])
		}
	case "TL":
		if len(operands) >= 1 {
			p.textState.Leading = parseFloat(operands[0])
		}
	case "Tf":
		p.setFont(operands)
	case "Ts":
		if len(operands) >= 1 {
			p.textState.Rise = parseFloat(operands[0])
		}

	case "q":
		stateCopy := *p.graphicsState
		p.stateStack = append(p.stateStack, &stateCopy)
	case "Q":
		if n := len(p.stateStack); n > 0 {
			p.graphicsState = p.stateStack[n-1]
			p.stateStack = p.stateStack[:n-1]
		}
	case "cm":
		p.concatMatrix(operands)
	case "w":
		if len(operands) >= 1 {
			p.graphicsState.LineWidth = parseFloat(operands[0])
		}

	case "m":
		if len(operands) >= 2 {
			p.appendPath("moveto",
				parseFloat(operands[0]), parseFloat(operands[1]))
		}
	case "l":
		if len(operands) >= 2 {
			p.appendPath("lineto",
				parseFloat(operands[0]), parseFloat(operands[1]))
		}
	case "c":
		if len(operands) >= 6 {
			p.appendPath("curveto",
				parseFloat(operands[0]), parseFloat(operands[1]),
				parseFloat(operands[2]), parseFloat(operands[3]),
				parseFloat(operands[4]), parseFloat(operands[5]))
		}
	case "v":
		// v names only the second control point; duplicate it for the
		// first.
		if len(operands) >= 4 {
			p.appendPath("curveto",
				parseFloat(operands[0]), parseFloat(operands[1]),
				parseFloat(operands[0]), parseFloat(operands[1]),
				parseFloat(operands[2]), parseFloat(operands[3]))
		}
	case "y":
		// y names only the first control point; the end point doubles
		// as the second.
		if len(operands) >= 4 {
			p.appendPath("curveto",
				parseFloat(operands[0]), parseFloat(operands[1]),
				parseFloat(operands[2]), parseFloat(operands[3]),
				parseFloat(operands[2]), parseFloat(operands[3]))
		}
	case "h":
		p.appendPath("close")
	case "re":
		p.rectangle(operands)

	case "S", "s":
		p.emitStrokedPath()
		p.currentPath = nil
	case "f", "F", "f*":
		p.emitFilledRect()
		p.currentPath = nil
	case "B", "B*", "b", "b*":
		p.emitFilledRect()
		p.emitStrokedPath()
		p.currentPath = nil
	case "n":
		p.currentPath = nil

	case "RG":
		p.graphicsState.StrokeColor = rgbColor(operands)
	case "rg":
		p.graphicsState.FillColor = rgbColor(operands)
	case "G":
		p.graphicsState.StrokeColor = grayColor(operands)
	case "g":
		p.graphicsState.FillColor = grayColor(operands)
	case "K":
		p.graphicsState.StrokeColor = cmykColor(operands)
	case "k":
		p.graphicsState.FillColor = cmykColor(operands)
	case "CS":
		if len(operands) >= 1 {
			p.graphicsState.StrokeColor.ColorSpace = strings.TrimPrefix(operands[0], "/")
		}
	case "cs":
		if len(operands) >= 1 {
			p.graphicsState.FillColor.ColorSpace = strings.TrimPrefix(operands[0], "/")
		}
	case "SC", "SCN":
		p.graphicsState.StrokeColor = componentColor(operands, p.graphicsState.StrokeColor)
	case "sc", "scn":
		p.graphicsState.FillColor = componentColor(operands, p.graphicsState.FillColor)
	}
}

// textMoveBy translates the line matrix and resets the text matrix to
// it, as Td, TD, T*, ' and " do.
func (p *contentStreamParser) textMoveBy(tx, ty float64) {
	p.lineMatrix = multiplyMatrix(translationMatrix(tx, ty), p.lineMatrix)
	p.textMatrix = p.lineMatrix
}

func (p *contentStreamParser) setTextMatrix(operands []string) {
	if len(operands) < 6 {
		return
	}

	p.textMatrix = matrix{
		A: parseFloat(operands[0]),
		B: parseFloat(operands[1]),
		C: parseFloat(operands[2]),
		D: parseFloat(operands[3]),
		E: parseFloat(operands[4]),
		F: parseFloat(operands[5]),
	}
	p.lineMatrix = p.textMatrix
}

func (p *contentStreamParser) concatMatrix(operands []string) {
	if len(operands) < 6 {
		return
	}

	m := matrix{
		A: parseFloat(operands[0]),
		B: parseFloat(operands[1]),
		C: parseFloat(operands[2]),
		D: parseFloat(operands[3]),
		E: parseFloat(operands[4]),
		F: parseFloat(operands[5]),
	}
	p.graphicsState.CTM = multiplyMatrix(m, p.graphicsState.CTM)
}

func (p *contentStreamParser) setFont(operands []string) {
	if len(operands) < 2 {
		return
	}

	name := strings.TrimPrefix(operands[len(operands)-2], "/")
	font, ok := p.fonts[name]
	if !ok {
		// Not in the page resources; track it anyway so the text it
		// shows is not lost.
		font = &fontInfo{Name: name}
		p.fonts[name] = font
	}
	p.textState.Font = font
	p.textState.FontSize = parseFloat(operands[len(operands)-1])
}

// showText renders the string operand of Tj, ' and ".
func (p *contentStreamParser) showText(operands []string) {
	if len(operands) < 1 {
		return
	}
	p.addTextChars(p.extractString(operands[len(operands)-1]))
}

// showTextArray renders a TJ array. Number elements are advance
// adjustments in thousandths of the font size; negative values move
// the pen forward.
func (p *contentStreamParser) showTextArray(operands []string) {
	for _, op := range operands {
		if op == "[" || op == "]" {
			continue
		}

		if strings.HasPrefix(op, "(") || strings.HasPrefix(op, "<") {
			p.addTextChars(p.extractString(op))
			continue
		}

		adjust := parseFloat(op) / 1000.0 * p.textState.FontSize
		p.textMatrix.E -= adjust * p.textMatrix.A
		p.textMatrix.F -= adjust * p.textMatrix.B
	}
}

// addTextChars emits one CharObject per rune of text, advancing the
// text matrix by an approximated glyph width.
func (p *contentStreamParser) addTextChars(text string) {
	if text == "" || p.textState.Font == nil {
		return
	}

	fontSize := p.textState.FontSize

	for _, r := range text {
		char := string(r)
		charWidth := charWidthFactor(char) * fontSize

		textX := p.textMatrix.E
		textY := p.textMatrix.F + p.textState.Rise*p.textMatrix.D

		x, y := p.transformPoint(textX, textY)

		if char != " " && char != "\n" && char != "\r" {
			p.objects.Chars = append(p.objects.Chars, CharObject{
				Text:     char,
				Font:     p.textState.Font.Name,
				FontSize: fontSize,
				X0:       x,
				Y0:       y,
				X1:       x + charWidth,
				Y1:       y + fontSize,
				Width:    charWidth,
				Height:   fontSize,
				Color:    toColor(p.graphicsState.FillColor),
			})
		}

		displacement := charWidth + p.textState.CharSpace
		if char == " " {
			displacement += p.textState.WordSpace
		}
		displacement *= p.textState.Scale / 100.0

		p.textMatrix.E += displacement * p.textMatrix.A
		p.textMatrix.F += displacement * p.textMatrix.B
	}
}

// charWidthFactor approximates a glyph's advance as a fraction of the
// font size, by character class. Exact widths live in each font's
// descriptor, which this parser does not read.
func charWidthFactor(char string) float64 {
	switch char {
	case " ":
		return 0.25
	case "i", "l", "I", "!", ".", ",", ";", ":", "'", "\"":
		return 0.3
	case "m", "M", "W", "w":
		return 0.8
	default:
		return 0.5
	}
}

func (p *contentStreamParser) appendPath(kind string, coords ...float64) {
	elem := pathElement{kind: kind}
	for i := 0; i+1 < len(coords); i += 2 {
		elem.points = append(elem.points, pdfPoint{X: coords[i], Y: coords[i+1]})
	}
	p.currentPath = append(p.currentPath, elem)
}

func (p *contentStreamParser) rectangle(operands []string) {
	if len(operands) < 4 {
		return
	}

	x := parseFloat(operands[0])
	y := parseFloat(operands[1])
	w := parseFloat(operands[2])
	h := parseFloat(operands[3])

	p.appendPath("moveto", x, y)
	p.appendPath("lineto", x+w, y)
	p.appendPath("lineto", x+w, y+h)
	p.appendPath("lineto", x, y+h)
	p.appendPath("close")
}

// emitStrokedPath converts the current path into line and curve
// objects in page coordinates.
func (p *contentStreamParser) emitStrokedPath() {
	if len(p.currentPath) < 2 {
		return
	}

	strokeColor := toColor(p.graphicsState.StrokeColor)

	var currentX, currentY float64
	var startX, startY float64

	for _, elem := range p.currentPath {
		switch elem.kind {
		case "moveto":
			if len(elem.points) > 0 {
				currentX, currentY = elem.points[0].X, elem.points[0].Y
				startX, startY = currentX, currentY
			}

		case "lineto":
			if len(elem.points) > 0 {
				x0, y0 := p.transformPoint(currentX, currentY)
				x1, y1 := p.transformPoint(elem.points[0].X, elem.points[0].Y)

				p.objects.Lines = append(p.objects.Lines, LineObject{
					X0:          x0,
					Y0:          y0,
					X1:          x1,
					Y1:          y1,
					Width:       p.graphicsState.LineWidth,
					StrokeColor: strokeColor,
				})

				currentX, currentY = elem.points[0].X, elem.points[0].Y
			}

		case "curveto":
			if len(elem.points) >= 3 {
				x0, y0 := p.transformPoint(currentX, currentY)
				cp1X, cp1Y := p.transformPoint(elem.points[0].X, elem.points[0].Y)
				cp2X, cp2Y := p.transformPoint(elem.points[1].X, elem.points[1].Y)
				x1, y1 := p.transformPoint(elem.points[2].X, elem.points[2].Y)

				p.objects.Curves = append(p.objects.Curves, CurveObject{
					Points: []Point{
						{X: x0, Y: y0},
						{X: cp1X, Y: cp1Y},
						{X: cp2X, Y: cp2Y},
						{X: x1, Y: y1},
					},
					Width:       p.graphicsState.LineWidth,
					StrokeColor: strokeColor,
				})

				currentX, currentY = elem.points[2].X, elem.points[2].Y
			}

		case "close":
			if currentX != startX || currentY != startY {
				x0, y0 := p.transformPoint(currentX, currentY)
				x1, y1 := p.transformPoint(startX, startY)

				p.objects.Lines = append(p.objects.Lines, LineObject{
					X0:          x0,
					Y0:          y0,
					X1:          x1,
					Y1:          y1,
					Width:       p.graphicsState.LineWidth,
					StrokeColor: strokeColor,
				})

				currentX, currentY = startX, startY
			}
		}
	}
}

// emitFilledRect records a rectangle object when the current path is a
// simple rectangle. Shaded table cells and row bands are drawn this
// way; irregular filled shapes are ignored.
func (p *contentStreamParser) emitFilledRect() {
	if len(p.currentPath) < 3 || !p.pathIsRectangle() {
		return
	}

	minX, minY, maxX, maxY := p.pathBounds()
	x0, y0 := p.transformPoint(minX, minY)
	x1, y1 := p.transformPoint(maxX, maxY)

	p.objects.Rects = append(p.objects.Rects, RectObject{
		X0:          min(x0, x1),
		Y0:          min(y0, y1),
		X1:          max(x0, x1),
		Y1:          max(y0, y1),
		FillColor:   toColor(p.graphicsState.FillColor),
		NonStroking: true,
	})
}

// pathIsRectangle reports whether the current path has the shape re
// produces: three explicit edges plus the closing one.
func (p *contentStreamParser) pathIsRectangle() bool {
	lineCount := 0
	hasClose := false

	for _, elem := range p.currentPath {
		switch elem.kind {
		case "lineto":
			lineCount++
		case "curveto":
			return false
		case "close":
			hasClose = true
		}
	}

	return lineCount == 3 && hasClose
}

func (p *contentStreamParser) pathBounds() (minX, minY, maxX, maxY float64) {
	first := true

	for _, elem := range p.currentPath {
		for _, pt := range elem.points {
			if first {
				minX, minY, maxX, maxY = pt.X, pt.Y, pt.X, pt.Y
				first = false
				continue
			}
			minX = min(minX, pt.X)
			minY = min(minY, pt.Y)
			maxX = max(maxX, pt.X)
			maxY = max(maxY, pt.Y)
		}
	}

	return minX, minY, maxX, maxY
}

// transformPoint applies the current transformation matrix.
func (p *contentStreamParser) transformPoint(x, y float64) (float64, float64) {
	m := p.graphicsState.CTM
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// extractString converts a string token to its raw character data and
// applies the current font's decoding.
func (p *contentStreamParser) extractString(token string) string {
	switch {
	case strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")"):
		raw := unescapeString(strings.TrimSuffix(strings.TrimPrefix(token, "("), ")"))
		return p.decodeWithFont(raw)

	case strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">"):
		raw := decodeHexString(strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">"))
		return p.decodeWithFont(raw)
	}

	return token
}

// decodeWithFont maps raw string bytes through the current font's
// ToUnicode CMap. Identity encodings carry two-byte CIDs; all other
// encodings are treated as single-byte codes.
func (p *contentStreamParser) decodeWithFont(str string) string {
	font := p.textState.Font
	if font == nil || font.ToUnicode == nil {
		return str
	}

	if font.Encoding == "Identity-H" || font.Encoding == "Identity-V" {
		return font.ToUnicode.Decode([]byte(str))
	}

	var b strings.Builder
	for _, c := range []byte(str) {
		if unicode, ok := font.ToUnicode.MapCIDToUnicode(uint16(c)); ok {
			b.WriteString(unicode)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescapeString resolves PDF string escape sequences, including octal
// codes and line continuations.
func unescapeString(str string) string {
	var b strings.Builder

	for i := 0; i < len(str); i++ {
		if str[i] != '\\' || i+1 >= len(str) {
			b.WriteByte(str[i])
			continue
		}

		i++
		switch str[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '(', ')', '\\':
			b.WriteByte(str[i])
		case '\n':
			// Line continuation: both characters vanish.
		case '\r':
			if i+1 < len(str) && str[i+1] == '\n' {
				i++
			}
		default:
			if str[i] >= '0' && str[i] <= '7' {
				val := 0
				for digits := 0; i < len(str) && digits < 3 && str[i] >= '0' && str[i] <= '7'; digits++ {
					val = val*8 + int(str[i]-'0')
					i++
				}
				i--
				b.WriteByte(byte(val))
			} else {
				b.WriteByte(str[i])
			}
		}
	}

	return b.String()
}

// decodeHexString converts hex digit pairs to raw bytes. A trailing
// odd digit is padded with zero per the PDF convention.
func decodeHexString(hexStr string) string {
	var b strings.Builder

	for i := 0; i < len(hexStr); i += 2 {
		var pair string
		if i+1 < len(hexStr) {
			pair = hexStr[i : i+2]
		} else {
			pair = hexStr[i:i+1] + "0"
		}

		if val, err := strconv.ParseInt(pair, 16, 16); err == nil {
			b.WriteByte(byte(val))
		}
	}

	return b.String()
}

func rgbColor(operands []string) pdfColor {
	if len(operands) < 3 {
		return pdfColor{ColorSpace: "RGB"}
	}
	return pdfColor{
		ColorSpace: "RGB",
		R:          parseFloat(operands[0]),
		G:          parseFloat(operands[1]),
		B:          parseFloat(operands[2]),
	}
}

func grayColor(operands []string) pdfColor {
	if len(operands) < 1 {
		return pdfColor{ColorSpace: "Gray"}
	}
	gray := parseFloat(operands[0])
	return pdfColor{ColorSpace: "Gray", R: gray, G: gray, B: gray}
}

// cmykColor approximates CMYK components as RGB.
func cmykColor(operands []string) pdfColor {
	if len(operands) < 4 {
		return pdfColor{ColorSpace: "CMYK"}
	}

	c := parseFloat(operands[0])
	m := parseFloat(operands[1])
	y := parseFloat(operands[2])
	k := parseFloat(operands[3])

	return pdfColor{
		ColorSpace: "CMYK",
		R:          (1 - c) * (1 - k),
		G:          (1 - m) * (1 - k),
		B:          (1 - y) * (1 - k),
	}
}

// componentColor interprets SC/SCN operands by arity: one component is
// gray, three are RGB, four are CMYK. Pattern names and unsupported
// spaces keep the current color.
func componentColor(operands []string, current pdfColor) pdfColor {
	var nums []string
	for _, op := range operands {
		if op == "" || strings.HasPrefix(op, "/") {
			continue
		}
		nums = append(nums, op)
	}

	switch len(nums) {
	case 1:
		return grayColor(nums)
	case 3:
		return rgbColor(nums)
	case 4:
		return cmykColor(nums)
	}
	return current
}

// toColor converts normalized color components to 8-bit RGBA.
func toColor(c pdfColor) Color {
	return Color{
		R: uint8(min(max(c.R, 0), 1) * 255),
		G: uint8(min(max(c.G, 0), 1) * 255),
		B: uint8(min(max(c.B, 0), 1) * 255),
		A: 255,
	}
}

func identityMatrix() matrix {
	return matrix{A: 1, D: 1}
}

func translationMatrix(tx, ty float64) matrix {
	return matrix{A: 1, D: 1, E: tx, F: ty}
}

func multiplyMatrix(m1, m2 matrix) matrix {
	return matrix{
		A: m1.A*m2.A + m1.B*m2.C,
		B: m1.A*m2.B + m1.B*m2.D,
		C: m1.C*m2.A + m1.D*m2.C,
		D: m1.C*m2.B + m1.D*m2.D,
		E: m1.E*m2.A + m1.F*m2.C + m2.E,
		F: m1.E*m2.B + m1.F*m2.D + m2.F,
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
