package analysis

import (
	"regexp"
	"strings"
)

// wordsPerMinute is the assumed adult reading speed.
const wordsPerMinute = 225.0

var (
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+(?:\s|$)`)
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
)

// ComputeMetrics calculates word, character, sentence and paragraph counts
// plus derived reading time and complexity. It is stateless and safe for
// concurrent use.
func ComputeMetrics(text string) TextMetrics {
	metrics := TextMetrics{
		CharacterCount: len([]rune(text)),
	}

	words := strings.Fields(text)
	metrics.WordCount = len(words)

	if strings.TrimSpace(text) != "" {
		metrics.SentenceCount = len(sentenceSplitRe.FindAllString(text, -1))
		if metrics.SentenceCount == 0 {
			metrics.SentenceCount = 1
		}

		for _, p := range paragraphSplitRe.Split(text, -1) {
			if strings.TrimSpace(p) != "" {
				metrics.ParagraphCount++
			}
		}
	}

	if metrics.WordCount > 0 {
		totalChars := 0
		for _, w := range words {
			totalChars += len([]rune(w))
		}
		metrics.AvgCharsPerWord = float64(totalChars) / float64(metrics.WordCount)
		metrics.ReadingTimeMinutes = float64(metrics.WordCount) / wordsPerMinute
	}
	if metrics.SentenceCount > 0 {
		metrics.AvgWordsPerSentence = float64(metrics.WordCount) / float64(metrics.SentenceCount)
	}

	complexity := metrics.AvgCharsPerWord*2 + metrics.AvgWordsPerSentence*0.1
	if complexity > 10 {
		complexity = 10
	}
	metrics.ComplexityScore = complexity

	return metrics
}
