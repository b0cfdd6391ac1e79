package textclean

import (
	"strings"
	"testing"
)

func TestDeepDecodesGarbledPhrases(t *testing.T) {
	c := NewCleaner(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "banner phrase",
			in:   "Intro 5>;53&1*;*35:5+@5<9&44<&2'*4*K;*495223*4; outro",
			want: "to make the most of your annual benefit enrollment",
		},
		{
			name: "symbol fragments",
			in:   "Choose @5<9 62&4 today",
			want: "your plan",
		},
		{
			name: "insurance vocabulary",
			in:   "your bene ts and covgrage details",
			want: "benefits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Deep(tt.in)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Deep(%q) = %q, missing %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeepDigitConfusables(t *testing.T) {
	c := NewCleaner(nil)

	got := c.Deep("Your ben3fits co5t is l0w")
	want := "Your benefits cost is low"
	if got != want {
		t.Errorf("Deep = %q, want %q", got, want)
	}

	// Real numbers must survive untouched.
	got = c.Deep("Enrollment opens in 2024 and costs $1,500.")
	for _, keep := range []string{"2024", "1,500"} {
		if !strings.Contains(got, keep) {
			t.Errorf("Deep mangled a number: %q missing from %q", keep, got)
		}
	}
}

func TestDeepCollapsesStutter(t *testing.T) {
	c := NewCleaner(nil)

	got := c.Deep("The offfffer is realllly good!!!")
	want := "The offer is really good!"
	if got != want {
		t.Errorf("Deep = %q, want %q", got, want)
	}
}

func TestDeepDropsNoiseLines(t *testing.T) {
	c := NewCleaner(nil)

	in := "Real sentence stays here.\n~~^^~~^^~~^^~~^^\nAnother real line."
	got := c.Deep(in)

	if strings.Contains(got, "~~^^") {
		t.Errorf("noise line survived Deep:\n%s", got)
	}
	for _, keep := range []string{"Real sentence stays here.", "Another real line."} {
		if !strings.Contains(got, keep) {
			t.Errorf("prose line lost: %q missing from:\n%s", keep, got)
		}
	}
}

func TestDeepSalvagesMixedLines(t *testing.T) {
	c := NewCleaner(nil)

	// Above the corruption threshold but carrying real words: the alphabetic
	// runs are kept, the noise between them is not.
	got := c.Deep("wo~rd^and~~mo^re")
	want := "wo rd and mo re"
	if got != want {
		t.Errorf("Deep = %q, want %q", got, want)
	}
}

func TestDeepPreservesTablesAndFences(t *testing.T) {
	c := NewCleaner(nil)

	in := strings.Join([]string{
		"| Plan | 7<&2/K*) |",
		"|------|----------|",
		"```",
		"~~^^~~^^~~^^",
		"```",
	}, "\n")

	got := c.Deep(in)

	if !strings.Contains(got, "|------|----------|") {
		t.Errorf("separator row lost:\n%s", got)
	}
	if !strings.Contains(got, "~~^^~~^^~~^^") {
		t.Errorf("fenced content modified:\n%s", got)
	}
}

func TestDeepPreservesHeadingMarkers(t *testing.T) {
	c := NewCleaner(nil)

	in := strings.Join([]string{
		"# ANNUAL ENROLLMENT GUIDEBOOK",
		"",
		"## Page 1",
		"",
		"Plain prose stays prose.",
		"",
		"### Tables (page 1)",
	}, "\n")

	got := c.Deep(in)

	for _, want := range []string{
		"# ANNUAL ENROLLMENT GUIDEBOOK",
		"## Page 1",
		"### Tables (page 1)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("heading %q lost its marker:\n%s", want, got)
		}
	}
}

func TestDeepJoinsHyphenBreaks(t *testing.T) {
	c := NewCleaner(nil)

	got := c.Deep("The insur-\nance plan")
	if !strings.Contains(got, "insurance") {
		t.Errorf("hyphen line break not joined: %q", got)
	}
}

func TestDeepWord(t *testing.T) {
	c := NewCleaner(nil)

	tests := []struct {
		in   string
		want string
	}{
		{"ben3fits", "benefits"},
		{"f1r5t", "first"},
		{"offfffer", "offer"},
		{"he4lth", "health"},
		{"wo$rd!", "word"},
		{"2024", "2024"},
		{"ok", "ok"},
	}
	for _, tt := range tests {
		if got := c.DeepWord(tt.in); got != tt.want {
			t.Errorf("DeepWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorruptionRatio(t *testing.T) {
	tests := []struct {
		name string
		in   string
		over bool
	}{
		{"clean prose", "A normal sentence with punctuation, numbers (2024) and $50.", false},
		{"pure noise", "~~^^<<>>~~^^", true},
		{"mixed", "wo~rd^and~~mo^re", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := CorruptionRatio(tt.in)
			if got := ratio > corruptionThreshold; got != tt.over {
				t.Errorf("CorruptionRatio(%q) = %.2f, over-threshold = %v, want %v",
					tt.in, ratio, got, tt.over)
			}
		})
	}
}
