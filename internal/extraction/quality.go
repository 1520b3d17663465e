package extraction

import (
	"strings"
	"unicode"
)

// QualityReport captures heuristics about the readability of raw extracted
// text. It is produced by AnalyzeQuality, which is a pure function.
type QualityReport struct {
	TotalChars     int     `json:"total_chars"`
	NonWhitespace  int     `json:"non_whitespace"`
	TextQuality    float64 `json:"text_quality"`    // percent of non-whitespace chars, 0 to 100
	PrintableRatio float64 `json:"printable_ratio"` // printable runes / total runes
	WordlikeRatio  float64 `json:"wordlike_ratio"`  // plausible word tokens / total tokens
	Garbled        bool    `json:"garbled"`
}

const (
	minPrintableRatio = 0.85
	minWordlikeRatio  = 0.30
)

// AnalyzeQuality scores raw extracted text for garbledness and information
// density. Garbled text contains control characters, escape artifacts or
// replacement runes indicating a failed parse.
func AnalyzeQuality(text string) QualityReport {
	report := QualityReport{}

	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
		if !unicode.IsSpace(r) {
			report.NonWhitespace++
		}
	}
	report.TotalChars = total

	if total == 0 {
		report.PrintableRatio = 1.0
		report.WordlikeRatio = 0.0
		return report
	}

	report.TextQuality = float64(report.NonWhitespace) / float64(total) * 100
	report.PrintableRatio = float64(printable) / float64(total)
	report.WordlikeRatio = wordlikeRatio(text)

	fields := strings.Fields(text)
	report.Garbled = report.PrintableRatio < minPrintableRatio ||
		(len(fields) >= 10 && report.WordlikeRatio < minWordlikeRatio)

	return report
}

// isGarbageRune reports whether a rune is an artifact of a failed parse:
// Private Use Area glyphs, the replacement character, or control characters
// other than common whitespace.
func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the share of whitespace-delimited tokens whose rune
// length falls in a plausible word range.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
