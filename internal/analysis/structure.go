package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	listItemRe   = regexp.MustCompile(`^\s*([-*•◦]|\d+[.)])\s+`)
	footnoteRe   = regexp.MustCompile(`^\s*\[\d+\][:.]?\s|^\s*\d+\)\s+.*\b(ibid|op\. cit|et al)\b`)
	referencesRe = regexp.MustCompile(`(?i)^\s*(references|bibliography|works cited)\s*$`)
	headerMarkRe = regexp.MustCompile(`^#{1,6}\s+\S`)
)

// AnalyzeStructure detects document structure via line-pattern heuristics:
// headers, lists, tables, code blocks, footnotes and reference sections.
// It is stateless and safe for concurrent use.
func AnalyzeStructure(text string) TextStructure {
	structure := TextStructure{}
	lines := strings.Split(text, "\n")
	structure.LineCount = len(lines)

	inFence := false
	indentedRun := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			indentedRun = 0
			continue
		}

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if inFence {
				structure.HasCodeBlocks = true
			}
			inFence = !inFence
			continue
		}

		if isHeaderLine(trimmed) {
			structure.HasHeaders = true
		}
		if listItemRe.MatchString(line) {
			structure.HasLists = true
		}
		if isTableLine(line) {
			structure.HasTables = true
		}
		if footnoteRe.MatchString(line) {
			structure.HasFootnotes = true
		}
		if referencesRe.MatchString(line) {
			structure.HasReferences = true
		}

		// Two or more consecutive deeply indented lines read as an
		// indented code block.
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			indentedRun++
			if indentedRun >= 2 {
				structure.HasCodeBlocks = true
			}
		} else {
			indentedRun = 0
		}
	}

	return structure
}

// isHeaderLine reports whether a line looks like a section header: a
// markup marker, or a short all-caps line.
func isHeaderLine(trimmed string) bool {
	if headerMarkRe.MatchString(trimmed) {
		return true
	}
	if len(trimmed) > 60 {
		return false
	}

	letters := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	// Require a few letters so stray numbers or bullets don't count.
	return letters >= 3
}

// isTableLine reports whether a line splits into more than two
// pipe-delimited fields.
func isTableLine(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	fields := 0
	for _, f := range strings.Split(line, "|") {
		if strings.TrimSpace(f) != "" {
			fields++
		}
	}
	return fields > 2
}
