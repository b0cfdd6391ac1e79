package textclean

import "strings"

// Markdown cleans text line by line while preserving markdown structure.
// Table rows, separator lines and fenced code blocks pass through
// untouched; known section headers are canonicalized; every other line
// receives the character-level fixes plus whitespace collapsing. Structural
// markers are never stripped, and heading lines come out well-formed.
func (c *Cleaner) Markdown(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	lastBlank := true

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			out = append(out, trimmed)
			lastBlank = false
			continue
		}
		if inFence {
			out = append(out, line)
			lastBlank = false
			continue
		}
		if c.isTableLine(trimmed) {
			out = append(out, trimmed)
			lastBlank = false
			continue
		}
		if heading, ok := c.canonicalHeading(trimmed); ok {
			out = append(out, heading)
			lastBlank = false
			continue
		}

		cleaned := strings.TrimSpace(c.lineClean(trimmed))
		if cleaned == "" {
			if !lastBlank {
				out = append(out, "")
				lastBlank = true
			}
			continue
		}
		out = append(out, c.fixMarkupLine(cleaned))
		lastBlank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// MarkdownDeep is the aggressive markdown pass: it decodes garbled symbol
// runs, strips control characters and splits run-together words, still
// honoring table rows and fences.
func (c *Cleaner) MarkdownDeep(text string) string {
	if text == "" {
		return ""
	}

	text = c.reControl.ReplaceAllString(text, "")
	text = applyGated(text, c.rules.gated)
	text = applyLiterals(text, c.rules.phrases)
	for _, rule := range c.rules.phrasePat {
		text = rule.Pattern.ReplaceAllString(text, rule.Replace)
	}
	text = applyLiterals(text, c.rules.symbols)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	lastBlank := true

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			out = append(out, trimmed)
			lastBlank = false
			continue
		}
		if inFence || c.isTableLine(trimmed) {
			out = append(out, trimmed)
			lastBlank = false
			continue
		}
		if heading, ok := c.canonicalHeading(trimmed); ok {
			out = append(out, heading)
			lastBlank = false
			continue
		}

		cleaned := c.reCamelSplit.ReplaceAllString(trimmed, "$1 $2")
		cleaned = c.reLetterDigit.ReplaceAllString(cleaned, "$1 $2")
		cleaned = c.reDigitWord.ReplaceAllString(cleaned, "$1 $2")
		cleaned = strings.TrimSpace(c.lineClean(cleaned))
		if cleaned == "" {
			if !lastBlank {
				out = append(out, "")
				lastBlank = true
			}
			continue
		}
		out = append(out, c.fixMarkupLine(cleaned))
		lastBlank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// SimpleClean is the gentle fallback used when aggressive cleaning would
// remove too much content: substitution tables and whitespace
// normalization with markdown structure preserved, and nothing dropped.
func (c *Cleaner) SimpleClean(text string) string {
	return c.Markdown(text)
}

// lineClean applies the character and phrase substitution tables to one
// line and collapses runs of spaces and tabs.
func (c *Cleaner) lineClean(line string) string {
	line = applyLiterals(line, c.rules.encoding)
	line = applyLiterals(line, c.rules.phrases)
	for _, rule := range c.rules.phrasePat {
		line = rule.Pattern.ReplaceAllString(line, rule.Replace)
	}
	return c.reMultiSpace.ReplaceAllString(line, " ")
}

// isTableLine reports whether a trimmed line belongs to a markdown table:
// either a separator run of dashes and pipes or a row with multiple cells.
func (c *Cleaner) isTableLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if c.reTableSep.MatchString(trimmed) {
		return true
	}
	return strings.Count(trimmed, "|") > 1
}

// canonicalHeading rewrites a line matching a known section header to its
// canonical heading form. First matching rule wins.
func (c *Cleaner) canonicalHeading(trimmed string) (string, bool) {
	if trimmed == "" {
		return "", false
	}
	for _, rule := range c.rules.headings {
		if rule.Pattern.MatchString(trimmed) {
			return rule.Heading, true
		}
	}
	return "", false
}

// fixMarkupLine repairs malformed markdown markers at the start of a line:
// collapses doubled heading markers, then puts the mandatory space after
// heading, list and blockquote markers.
func (c *Cleaner) fixMarkupLine(line string) string {
	for c.reHeadingDup.MatchString(line) {
		line = c.reHeadingDup.ReplaceAllString(line, "$1$2 ")
	}
	line = c.reHeadingSpace.ReplaceAllString(line, "$1 $2")
	line = c.reBulletSpace.ReplaceAllString(line, "$1 $2")
	line = c.reNumList.ReplaceAllString(line, "$1 $2")
	line = c.reQuoteSpace.ReplaceAllString(line, "$1 $2")
	return line
}

// collectHeadings returns the heading lines of text in document order.
func collectHeadings(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			headings = append(headings, trimmed)
		}
	}
	return headings
}

// restoreHeadings appends any heading whose title text survived with more
// than a few characters but no longer appears in the cleaned text. Cleaning
// must never silently drop a section header.
func restoreHeadings(cleaned string, headings []string) string {
	for _, heading := range headings {
		title := strings.TrimSpace(strings.TrimLeft(heading, "#"))
		if len(title) <= 3 {
			continue
		}
		if strings.Contains(cleaned, title) {
			continue
		}
		cleaned = cleaned + "\n\n" + heading
	}
	return cleaned
}
