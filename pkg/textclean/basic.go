package textclean

import (
	"regexp"
	"strings"
)

// Cleaner applies the cleaning cascade. It carries an immutable rule
// catalog and precompiled patterns, so a single Cleaner is safe to share
// across goroutines.
type Cleaner struct {
	rules *Rules

	reWhitespace  *regexp.Regexp
	reMultiSpace  *regexp.Regexp
	reBlankLines  *regexp.Regexp
	reCID         *regexp.Regexp
	reControl     *regexp.Regexp
	reHyphenBreak *regexp.Regexp

	// Deep reconstruction patterns.
	reDigitNoise  *regexp.Regexp
	reSymbolRun   *regexp.Regexp
	reBracketRun  *regexp.Regexp
	reGarbleRun   *regexp.Regexp
	reOrphanChar  *regexp.Regexp
	reCamelSplit  *regexp.Regexp
	reLetterDigit *regexp.Regexp
	reDigitWord   *regexp.Regexp
	reRNArtifact  *regexp.Regexp
	rePunctGap    *regexp.Regexp
	reSpacePunct  *regexp.Regexp
	reDigitInWord *regexp.Regexp
	reAlphaRun    *regexp.Regexp

	// Markdown structure patterns.
	reHeadingLine  *regexp.Regexp
	reHeadingSpace *regexp.Regexp
	reHeadingDup   *regexp.Regexp
	reBulletSpace  *regexp.Regexp
	reNumList      *regexp.Regexp
	reTableSep     *regexp.Regexp
	reHRule        *regexp.Regexp
	reQuoteSpace   *regexp.Regexp
	reSepCells     *regexp.Regexp
}

// NewCleaner returns a Cleaner over the given catalog. A nil catalog uses
// the default rules.
func NewCleaner(rules *Rules) *Cleaner {
	if rules == nil {
		rules = NewRules()
	}
	return &Cleaner{
		rules: rules,

		reWhitespace:  regexp.MustCompile(`\s+`),
		reMultiSpace:  regexp.MustCompile(`[ \t]{2,}`),
		reBlankLines:  regexp.MustCompile(`\n{3,}`),
		reCID:         regexp.MustCompile(`\(cid:\d+\)`),
		reControl:     regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`),
		reHyphenBreak: regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`),

		reDigitNoise:  regexp.MustCompile(`(\d[a-zA-Z]){2,}`),
		reSymbolRun:   regexp.MustCompile(`[^\w\s.,!?:;()-]{3,}`),
		reBracketRun:  regexp.MustCompile(`[\[\](){}]{4,}`),
		reGarbleRun:   regexp.MustCompile(`[&;*@#%><\\/]{2,}`),
		reOrphanChar:  regexp.MustCompile(`\s+([b-hj-zA-HJ-Z])\s+`),
		reCamelSplit:  regexp.MustCompile(`([a-z])([A-Z])`),
		reLetterDigit: regexp.MustCompile(`([a-z])(\d)`),
		reDigitWord:   regexp.MustCompile(`(\d)([a-z])`),
		reRNArtifact:  regexp.MustCompile(`\brn([a-z]+)\b`),
		rePunctGap:    regexp.MustCompile(`([a-zA-Z])([.,;:!?])([a-zA-Z])`),
		reSpacePunct:  regexp.MustCompile(` +([.,;:!?])`),
		reDigitInWord: regexp.MustCompile(`[a-zA-Z]*\d[a-zA-Z0-9]*`),
		reAlphaRun:    regexp.MustCompile(`[a-zA-Z]{2,}`),

		reHeadingLine:  regexp.MustCompile(`^#{1,6}\s`),
		reHeadingSpace: regexp.MustCompile(`^(#{1,6})([^#\s])`),
		reHeadingDup:   regexp.MustCompile(`^(#{1,6})\s+(#{1,6})\s*`),
		reBulletSpace:  regexp.MustCompile(`^([-*+])([^\s\-*+|])`),
		reNumList:      regexp.MustCompile(`^(\d{1,3}[.)])(\S)`),
		reTableSep:     regexp.MustCompile(`^\s*[-|]+\s*$`),
		reHRule:        regexp.MustCompile(`^\s*(-{3,}|\*{3,}|_{3,})\s*$`),
		reQuoteSpace:   regexp.MustCompile(`^(>+)([^\s>])`),
		reSepCells:     regexp.MustCompile(`^:?-+:?$`),
	}
}

// Basic fixes character-level encoding artifacts and normalizes whitespace.
// It never touches line structure beyond whitespace collapsing, and it is
// idempotent: Basic(Basic(s)) == Basic(s).
func (c *Cleaner) Basic(text string) string {
	if text == "" {
		return ""
	}
	text = applyLiterals(text, c.rules.encoding)
	text = c.reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// BasicPreservingLines applies the same encoding fixes as Basic but keeps
// newlines intact, collapsing only runs of spaces and tabs within lines.
// Table artifacts are cleaned this way so rows stay rows.
func (c *Cleaner) BasicPreservingLines(text string) string {
	if text == "" {
		return ""
	}
	text = applyLiterals(text, c.rules.encoding)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(c.reMultiSpace.ReplaceAllString(line, " "), " ")
	}
	text = strings.Join(lines, "\n")
	return c.reBlankLines.ReplaceAllString(text, "\n\n")
}

// PageScrub prepares raw extractor output for persistence: it removes
// unresolvable glyph references, normalizes line endings and form feeds,
// and applies the encoding fixes while preserving the page's line layout.
func (c *Cleaner) PageScrub(text string) string {
	if text == "" {
		return ""
	}
	text = c.reCID.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\f", "\n\n")
	text = c.BasicPreservingLines(text)
	return strings.TrimRight(text, " \n") + "\n"
}
