package textclean

import (
	"strings"
	"unicode"
)

// allowedPunct are the characters that do not count toward a line's
// corruption ratio. Everything else outside letters, digits and whitespace
// is treated as extraction noise.
const allowedPunct = `.,;:!?()[]{}"'-+=$%&*/@#`

// corruptionThreshold is the corruption ratio above which a line is
// reconstructed from its alphabetic runs or dropped.
const corruptionThreshold = 0.3

// Deep reconstructs heavily garbled text. It runs the gated and global
// substitution catalogs, repairs words at the character level, filters
// lines that remain mostly noise, and normalizes the result. Unlike the
// gentler passes it may drop lines, so callers wrap it in the guarded
// two-pass flow. Table rows, separator lines, heading lines and fenced
// blocks are exempt from both repair and filtering: their markers would
// otherwise read as symbol noise.
func (c *Cleaner) Deep(text string) string {
	if text == "" {
		return ""
	}

	text = applyGated(text, c.rules.gated)
	text = applyLiterals(text, c.rules.phrases)
	for _, rule := range c.rules.phrasePat {
		text = rule.Pattern.ReplaceAllString(text, rule.Replace)
	}
	text = applyLiterals(text, c.rules.symbols)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			out = append(out, trimmed)
			continue
		}
		if inFence || c.isTableLine(trimmed) || c.reHeadingLine.MatchString(trimmed) {
			out = append(out, trimmed)
			continue
		}
		if trimmed == "" {
			out = append(out, "")
			continue
		}

		repaired := c.repairLine(trimmed)
		kept, ok := c.filterLine(repaired)
		if !ok {
			continue
		}
		out = append(out, kept)
	}

	text = strings.Join(out, "\n")
	text = c.reHyphenBreak.ReplaceAllString(text, "$1$2\n")
	text = c.reBlankLines.ReplaceAllString(text, "\n\n")
	text = c.rePunctGap.ReplaceAllString(text, "$1$2 $3")
	text = c.reSpacePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// repairLine applies the character-level reconstruction steps to one line.
func (c *Cleaner) repairLine(line string) string {
	line = collapseLetterRuns(line, 2)
	line = c.mapDigitConfusables(line)
	line = c.reDigitNoise.ReplaceAllString(line, " ")
	line = c.reSymbolRun.ReplaceAllString(line, " ")
	line = c.reBracketRun.ReplaceAllString(line, " ")
	line = c.reGarbleRun.ReplaceAllString(line, " ")
	line = c.reCamelSplit.ReplaceAllString(line, "$1 $2")
	line = c.reLetterDigit.ReplaceAllString(line, "$1 $2")
	line = c.reDigitWord.ReplaceAllString(line, "$1 $2")
	line = c.reRNArtifact.ReplaceAllString(line, "m$1")
	line = collapsePunctRuns(line)
	line = c.reOrphanChar.ReplaceAllString(line, " ")
	line = c.reMultiSpace.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

// filterLine decides what survives of a repaired line. Lines over the
// corruption threshold are rebuilt from their alphabetic runs when those
// runs carry enough signal, and dropped otherwise.
func (c *Cleaner) filterLine(line string) (string, bool) {
	if len([]rune(line)) <= 3 {
		return line, true
	}
	if CorruptionRatio(line) <= corruptionThreshold {
		return line, true
	}

	runs := c.reAlphaRun.FindAllString(line, -1)
	total := 0
	for _, run := range runs {
		total += len(run)
	}
	if total > 5 {
		return strings.Join(runs, " "), true
	}
	return "", false
}

// DeepWord repairs a single garbled token: collapses stuttered letters,
// maps digit confusables, and strips characters that cannot occur inside a
// word. Tokens of one or two characters are returned unchanged.
func (c *Cleaner) DeepWord(word string) string {
	if len([]rune(word)) <= 2 {
		return word
	}
	word = collapseLetterRuns(word, 2)
	word = c.mapDigitConfusables(word)

	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CorruptionRatio returns the fraction of characters in line that are
// neither alphanumeric, whitespace, nor common punctuation. A high ratio
// marks a line as extraction noise rather than prose.
func CorruptionRatio(line string) float64 {
	runes := []rune(line)
	if len(runes) == 0 {
		return 0
	}
	special := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune(allowedPunct, r) {
			continue
		}
		special++
	}
	return float64(special) / float64(len(runes))
}

// mapDigitConfusables replaces confusable digits that sit between two
// letters, so "ben3fits" becomes "benefits" while "2024" and "plan2024"
// stay numeric. Replacements see earlier fixes in the same word, which
// lets consecutive confusables like "f1r5t" resolve left to right.
func (c *Cleaner) mapDigitConfusables(line string) string {
	runes := []rune(line)
	for i, r := range runes {
		if r < '0' || r > '9' {
			continue
		}
		if i == 0 || i == len(runes)-1 {
			continue
		}
		if !isASCIILetter(runes[i-1]) || !isASCIILetter(runes[i+1]) {
			continue
		}
		if letter, ok := ConfusableLetter(r); ok {
			runes[i] = letter
		}
	}
	return string(runes)
}

// collapseLetterRuns shortens runs of the same letter longer than keep.
// Extraction stutter produces "offffer"; English never needs three
// identical letters in a row. Digits and punctuation are left alone so
// numbers and markdown rules survive.
func collapseLetterRuns(s string, keep int) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	run := 0
	for _, r := range s {
		if r == prev && unicode.IsLetter(r) {
			run++
			if run > keep {
				continue
			}
		} else {
			prev = r
			run = 1
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapsePunctRuns reduces runs of the same sentence punctuation mark to
// a single mark. Hyphens are excluded so horizontal rules and number
// ranges are untouched.
func collapsePunctRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && strings.ContainsRune(".,!?:;", r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
