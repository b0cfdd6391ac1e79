package textclean

import (
	"strings"
	"testing"
)

func TestLiteralRulesLongestFirst(t *testing.T) {
	rules := []LiteralRule{
		{"/4", "in"},
		{"/4;.*", "in the"},
		{";.*", "the"},
	}
	sortLongestFirst(rules)

	if rules[0].From != "/4;.*" {
		t.Fatalf("longest key should sort first, got %q", rules[0].From)
	}

	// The five-character fragment must win over the fragments it contains.
	got := applyLiterals("/4;.*", rules)
	if got != "in the" {
		t.Errorf("applyLiterals(%q) = %q, want %q", "/4;.*", got, "in the")
	}
}

func TestSortLongestFirstStable(t *testing.T) {
	rules := []LiteralRule{
		{"aa", "first"},
		{"bb", "second"},
		{"cc", "third"},
	}
	sortLongestFirst(rules)

	for i, want := range []string{"aa", "bb", "cc"} {
		if rules[i].From != want {
			t.Errorf("equal-length keys reordered: rules[%d] = %q, want %q", i, rules[i].From, want)
		}
	}
}

func TestApplyLiteralsOrdered(t *testing.T) {
	rules := NewRules()

	tests := []struct {
		in   string
		want string
	}{
		{"@5<9 62&4", "your plan"},
		{"K9:; @*&9", "first year"},
		{"7<&2/K*) 3*)/(&2 *?6*4:*:", "qualified medical expenses"},
	}
	for _, tt := range tests {
		if got := applyLiterals(tt.in, rules.symbols); got != tt.want {
			t.Errorf("applyLiterals(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodingFixesStripInvisibles(t *testing.T) {
	rules := NewRules()

	// BOM and zero-width space vanish, nbsp becomes a plain space and the
	// soft hyphen becomes a visible one.
	got := applyLiterals("\uFEFFplan​ details now­", rules.encoding)
	want := "plan details now-"
	if got != want {
		t.Errorf("applyLiterals() = %q, want %q", got, want)
	}
}

func TestGatedRulesRequireMarker(t *testing.T) {
	rules := NewRules()
	const fragment = "A copay is a K? *)&35<4; you pay"

	without := applyGated(fragment, rules.gated)
	if strings.Contains(without, "fixed amount") {
		t.Errorf("gated rule fired without its marker: %q", without)
	}

	with := applyGated("HEALTH CARE GLOSSARY\n"+fragment, rules.gated)
	if !strings.Contains(with, "fixed amount") {
		t.Errorf("gated rule did not fire with marker present: %q", with)
	}
}

func TestConfusableLetter(t *testing.T) {
	tests := []struct {
		digit  rune
		letter rune
		ok     bool
	}{
		{'0', 'o', true},
		{'1', 'i', true},
		{'3', 'e', true},
		{'4', 'a', true},
		{'5', 's', true},
		{'8', 'b', true},
		{'2', '2', false},
		{'6', '6', false},
		{'7', '7', false},
		{'9', '9', false},
	}
	for _, tt := range tests {
		letter, ok := ConfusableLetter(tt.digit)
		if letter != tt.letter || ok != tt.ok {
			t.Errorf("ConfusableLetter(%q) = %q, %v, want %q, %v",
				tt.digit, letter, ok, tt.letter, tt.ok)
		}
	}
}

func TestNewRulesIndependentCopies(t *testing.T) {
	a := NewRules()
	b := NewRules()

	// Mutating one catalog's slices must not leak into another.
	a.symbols[0] = LiteralRule{"mutated", "mutated"}
	if b.symbols[0].From == "mutated" {
		t.Error("catalogs share backing arrays")
	}
}
