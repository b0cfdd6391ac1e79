package pdf

import (
	"reflect"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func parseContent(t *testing.T, content string) Objects {
	t.Helper()
	parser := newContentStreamParser(nil, types.Dict{})
	return parser.Parse([]byte(content))
}

func TestParseTextPositioning(t *testing.T) {
	objects := parseContent(t, `BT /F1 12 Tf 100 700 Td (AB) Tj ET`)

	if len(objects.Chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(objects.Chars))
	}

	a := objects.Chars[0]
	if a.Text != "A" || a.X0 != 100 || a.Y0 != 700 {
		t.Errorf("first char = %q at (%.1f, %.1f), want A at (100.0, 700.0)", a.Text, a.X0, a.Y0)
	}
	if a.FontSize != 12 || a.Y1 != 712 {
		t.Errorf("first char size %.1f top %.1f, want 12.0 and 712.0", a.FontSize, a.Y1)
	}

	// Default glyph width is half the font size.
	b := objects.Chars[1]
	if b.Text != "B" || b.X0 != 106 {
		t.Errorf("second char = %q at X=%.1f, want B at 106.0", b.Text, b.X0)
	}
}

func TestParseSpacesAdvanceWithoutChars(t *testing.T) {
	objects := parseContent(t, `BT /F1 10 Tf 0 0 Td (A B) Tj ET`)

	if len(objects.Chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(objects.Chars))
	}

	// A is 5 wide, the space 2.5.
	if got := objects.Chars[1].X0; got != 7.5 {
		t.Errorf("char after space at X=%.2f, want 7.50", got)
	}
}

func TestParseTJAdjustments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantX   float64
	}{
		{
			name:    "negative adjustment widens the gap",
			content: `BT /F1 10 Tf 0 0 Td [(A) -500 (B)] TJ ET`,
			wantX:   10,
		},
		{
			name:    "positive adjustment tightens it",
			content: `BT /F1 10 Tf 0 0 Td [(A) 500 (B)] TJ ET`,
			wantX:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := parseContent(t, tt.content)
			if len(objects.Chars) != 2 {
				t.Fatalf("got %d chars, want 2", len(objects.Chars))
			}
			if got := objects.Chars[1].X0; got != tt.wantX {
				t.Errorf("second char at X=%.1f, want %.1f", got, tt.wantX)
			}
		})
	}
}

func TestParseTextStateOperators(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantX   float64
	}{
		{
			name:    "char spacing widens every advance",
			content: `BT /F1 10 Tf 2 Tc 0 0 Td (AB) Tj ET`,
			wantX:   7,
		},
		{
			name:    "word spacing applies to spaces",
			content: `BT /F1 10 Tf 4 Tw 0 0 Td (A B) Tj ET`,
			wantX:   11.5,
		},
		{
			name:    "horizontal scale halves the advance",
			content: `BT /F1 10 Tf 50 Tz 0 0 Td (AB) Tj ET`,
			wantX:   2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := parseContent(t, tt.content)
			if len(objects.Chars) != 2 {
				t.Fatalf("got %d chars, want 2", len(objects.Chars))
			}
			if got := objects.Chars[1].X0; got != tt.wantX {
				t.Errorf("second char at X=%.2f, want %.2f", got, tt.wantX)
			}
		})
	}
}

func TestParseLineAdvanceOperators(t *testing.T) {
	objects := parseContent(t, `BT /F1 10 Tf 14 TL 0 700 Td (A) Tj T* (B) Tj (C) ' ET`)

	if len(objects.Chars) != 3 {
		t.Fatalf("got %d chars, want 3", len(objects.Chars))
	}

	ys := []float64{objects.Chars[0].Y0, objects.Chars[1].Y0, objects.Chars[2].Y0}
	want := []float64{700, 686, 672}
	if !reflect.DeepEqual(ys, want) {
		t.Errorf("char baselines = %v, want %v", ys, want)
	}
}

func TestParseQuoteOperatorSetsSpacing(t *testing.T) {
	// " sets word and char spacing, advances a line, then shows text.
	objects := parseContent(t, `BT /F1 10 Tf 14 TL 0 700 Td 3 2 (AB) " ET`)

	if len(objects.Chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(objects.Chars))
	}
	if got := objects.Chars[0].Y0; got != 686 {
		t.Errorf("baseline %.1f, want 686.0 after the line advance", got)
	}
	// Advance is glyph width 5 plus char spacing 2.
	if got := objects.Chars[1].X0; got != 7 {
		t.Errorf("second char at X=%.1f, want 7.0", got)
	}
}

func TestParseMatrixTransform(t *testing.T) {
	objects := parseContent(t, `q 2 0 0 2 0 0 cm BT /F1 10 Tf 50 100 Td (A) Tj ET Q`)

	if len(objects.Chars) != 1 {
		t.Fatalf("got %d chars, want 1", len(objects.Chars))
	}

	char := objects.Chars[0]
	if char.X0 != 100 || char.Y0 != 200 {
		t.Errorf("char at (%.1f, %.1f), want (100.0, 200.0)", char.X0, char.Y0)
	}
}

func TestParseGraphicsStateRestore(t *testing.T) {
	objects := parseContent(t, `1 0 0 RG q 0 1 0 RG Q 0 0 m 10 0 l S`)

	if len(objects.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(objects.Lines))
	}

	color := objects.Lines[0].StrokeColor
	if color.R != 255 || color.G != 0 {
		t.Errorf("stroke color = %+v, want the red set before q", color)
	}
}

func TestParseRectanglePaths(t *testing.T) {
	t.Run("stroked rectangle becomes four lines", func(t *testing.T) {
		objects := parseContent(t, `100 500 200 100 re S`)
		if len(objects.Lines) != 4 {
			t.Fatalf("got %d lines, want 4", len(objects.Lines))
		}
		if len(objects.Rects) != 0 {
			t.Errorf("stroke also produced %d rects", len(objects.Rects))
		}
	})

	t.Run("filled rectangle becomes a rect object", func(t *testing.T) {
		objects := parseContent(t, `0.5 g 100 500 200 100 re f`)
		if len(objects.Rects) != 1 {
			t.Fatalf("got %d rects, want 1", len(objects.Rects))
		}

		rect := objects.Rects[0]
		if rect.X0 != 100 || rect.Y0 != 500 || rect.X1 != 300 || rect.Y1 != 600 {
			t.Errorf("rect = (%.1f, %.1f)-(%.1f, %.1f), want (100.0, 500.0)-(300.0, 600.0)",
				rect.X0, rect.Y0, rect.X1, rect.Y1)
		}
		if !rect.NonStroking {
			t.Error("filled rect not marked NonStroking")
		}
		if rect.FillColor.R != 127 {
			t.Errorf("fill gray = %d, want 127", rect.FillColor.R)
		}
	})

	t.Run("fill and stroke produces both", func(t *testing.T) {
		objects := parseContent(t, `100 500 200 100 re B`)
		if len(objects.Rects) != 1 || len(objects.Lines) != 4 {
			t.Errorf("got %d rects and %d lines, want 1 and 4", len(objects.Rects), len(objects.Lines))
		}
	})

	t.Run("curved path is never a rect", func(t *testing.T) {
		objects := parseContent(t, `0 0 m 10 0 l 10 10 20 10 20 0 c 0 0 l h f`)
		if len(objects.Rects) != 0 {
			t.Errorf("curved path produced %d rects", len(objects.Rects))
		}
	})
}

func TestParseCurves(t *testing.T) {
	objects := parseContent(t, `0 0 m 10 20 30 20 40 0 c S`)

	if len(objects.Curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(objects.Curves))
	}

	curve := objects.Curves[0]
	if len(curve.Points) != 4 {
		t.Fatalf("curve has %d points, want 4", len(curve.Points))
	}
	if curve.Points[0] != (Point{X: 0, Y: 0}) || curve.Points[3] != (Point{X: 40, Y: 0}) {
		t.Errorf("curve endpoints = %v and %v", curve.Points[0], curve.Points[3])
	}
}

func TestParseColorOperators(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Color
	}{
		{
			name:    "rgb fill",
			content: `1 0 0 rg 0 0 10 10 re f`,
			want:    Color{R: 255, G: 0, B: 0, A: 255},
		},
		{
			name:    "cmyk black fill",
			content: `0 0 0 1 k 0 0 10 10 re f`,
			want:    Color{R: 0, G: 0, B: 0, A: 255},
		},
		{
			name:    "scn components by arity",
			content: `/P0 cs 0.5 scn 0 0 10 10 re f`,
			want:    Color{R: 127, G: 127, B: 127, A: 255},
		},
		{
			name:    "out of range components clamp",
			content: `2 -1 0 rg 0 0 10 10 re f`,
			want:    Color{R: 255, G: 0, B: 0, A: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := parseContent(t, tt.content)
			if len(objects.Rects) != 1 {
				t.Fatalf("got %d rects, want 1", len(objects.Rects))
			}
			if got := objects.Rects[0].FillColor; got != tt.want {
				t.Errorf("fill color = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseUnknownFontStillShowsText(t *testing.T) {
	objects := parseContent(t, `BT /F9 12 Tf (Hi) Tj ET`)

	if len(objects.Chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(objects.Chars))
	}
	if objects.Chars[0].Font != "F9" {
		t.Errorf("char font = %q, want F9", objects.Chars[0].Font)
	}
}

func TestParseHexStringText(t *testing.T) {
	objects := parseContent(t, `BT /F1 12 Tf <4849> Tj ET`)

	if len(objects.Chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(objects.Chars))
	}
	if got := objects.Chars[0].Text + objects.Chars[1].Text; got != "HI" {
		t.Errorf("hex text = %q, want HI", got)
	}
}

func TestParseIdentityEncodedText(t *testing.T) {
	cmap := NewToUnicodeCMap()
	if err := cmap.Parse([]byte(`beginbfchar <0041> <AC00> endbfchar`)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	parser := newContentStreamParser(nil, types.Dict{})
	parser.fonts["F1"] = &fontInfo{Name: "F1", Encoding: "Identity-H", ToUnicode: cmap}

	objects := parser.Parse([]byte(`BT /F1 12 Tf <0041> Tj ET`))

	if len(objects.Chars) != 1 {
		t.Fatalf("got %d chars, want 1", len(objects.Chars))
	}
	if objects.Chars[0].Text != "가" {
		t.Errorf("decoded text = %q, want 가", objects.Chars[0].Text)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "string and operator",
			content: `(Hello World) Tj`,
			want:    []string{"(Hello World)", "Tj"},
		},
		{
			name:    "nested parentheses stay in one token",
			content: `(outer (inner) tail) Tj`,
			want:    []string{"(outer (inner) tail)", "Tj"},
		},
		{
			name:    "escaped parentheses",
			content: `(a\(b\)c) Tj`,
			want:    []string{`(a\(b\)c)`, "Tj"},
		},
		{
			name:    "hex string",
			content: `<48 65 6C> Tj`,
			want:    []string{"<48656C>", "Tj"},
		},
		{
			name:    "array tokens",
			content: `[(A) -250 (B)] TJ`,
			want:    []string{"[", "(A)", "-250", "(B)", "]", "TJ"},
		},
		{
			name:    "inline dictionary",
			content: `/OC <</MCID 0>> BDC`,
			want:    []string{"/OC", "<<", "/MCID", "0", ">>", "BDC"},
		},
		{
			name:    "comment skipped to end of line",
			content: "% header\n123 456 m",
			want:    []string{"123", "456", "m"},
		},
		{
			name:    "postscript braces dropped",
			content: `{ 2 mul }`,
			want:    []string{"2", "mul"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize([]byte(tt.content))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnescapeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "newline escape", input: `a\nb`, want: "a\nb"},
		{name: "tab escape", input: `a\tb`, want: "a\tb"},
		{name: "escaped parens", input: `\(x\)`, want: "(x)"},
		{name: "escaped backslash", input: `a\\b`, want: `a\b`},
		{name: "three digit octal", input: `\101`, want: "A"},
		{name: "octal stops at three digits", input: `\0533`, want: "+3"},
		{name: "two digit octal", input: `\53`, want: "+"},
		{name: "unknown escape drops the backslash", input: `a\ b`, want: "a b"},
		{name: "line continuation", input: "a\\\nb", want: "ab"},
		{name: "trailing backslash kept", input: `ab\`, want: `ab\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unescapeString(tt.input); got != tt.want {
				t.Errorf("unescapeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeHexStringBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "even digits", input: "48656C6C6F", want: "Hello"},
		{name: "odd digit padded with zero", input: "486", want: "H\x60"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeHexString(tt.input); got != tt.want {
				t.Errorf("decodeHexString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMultiplyMatrix(t *testing.T) {
	translate := translationMatrix(10, 20)
	scale := matrix{A: 2, D: 2}

	// Translation applied before scaling doubles the offset.
	m := multiplyMatrix(translate, scale)
	if m.E != 20 || m.F != 40 {
		t.Errorf("offset = (%.1f, %.1f), want (20.0, 40.0)", m.E, m.F)
	}

	// The other order leaves the offset alone.
	m = multiplyMatrix(scale, translate)
	if m.E != 10 || m.F != 20 {
		t.Errorf("offset = (%.1f, %.1f), want (10.0, 20.0)", m.E, m.F)
	}
}
