package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AggregatorConfig configures report derivation.
type AggregatorConfig struct {
	// SummaryBudget is the maximum summary length in characters.
	SummaryBudget int `json:"summary_budget"`

	// LanguageOverlapFloor is the minimum lexicon overlap ratio required
	// to claim a language; below it the report says "unknown".
	LanguageOverlapFloor float64 `json:"language_overlap_floor"`

	// StrongEmotionFloor is the intensity above which the top emotion
	// triggers a recommendation.
	StrongEmotionFloor float64 `json:"strong_emotion_floor"`
}

// DefaultAggregatorConfig returns the default aggregation configuration.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		SummaryBudget:        300,
		LanguageOverlapFloor: 0.1,
		StrongEmotionFloor:   0.5,
	}
}

// Aggregator runs the four analysis stages concurrently and merges their
// outputs into one report. Any stage failing fails the whole call: no
// partial report is ever returned.
type Aggregator struct {
	config AggregatorConfig
	logger *slog.Logger
}

// NewAggregator creates an aggregator with the default configuration.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return NewAggregatorWithConfig(DefaultAggregatorConfig(), logger)
}

// NewAggregatorWithConfig creates an aggregator with a custom
// configuration.
func NewAggregatorWithConfig(config AggregatorConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{config: config, logger: logger}
}

// Analyze runs metrics, structure, entity and sentiment analysis over the
// text concurrently, then derives sensitivity, language, summary and
// recommendations. The stages share only the immutable text snapshot, so
// the fan-out is a pure scheduling optimization.
func (a *Aggregator) Analyze(ctx context.Context, text, filename string) *Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return &Result{
			Success:          false,
			Error:            fmt.Sprintf("analysis cancelled: %v", err),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}
	}

	var (
		metrics     TextMetrics
		structure   TextStructure
		entities    EntityBundle
		sentiment   SentimentResult
		sensitivity SensitivityLevel
	)

	stages := []struct {
		name string
		run  func()
	}{
		{"metrics", func() { metrics = ComputeMetrics(text) }},
		{"structure", func() { structure = AnalyzeStructure(text) }},
		{"entities", func() { entities = ExtractEntities(text) }},
		{"sentiment", func() {
			sentiment = ComputeSentiment(text)
			sensitivity, _ = ComputeSensitivity(text)
		}},
	}

	var wg sync.WaitGroup
	stageErrs := make([]error, len(stages))

	for i, stage := range stages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					stageErrs[i] = fmt.Errorf("%s stage panicked: %v", stage.name, r)
				}
			}()
			stage.run()
		}()
	}
	wg.Wait()

	for _, err := range stageErrs {
		if err != nil {
			a.logger.Error("analysis stage failed", "filename", filename, "error", err)
			return &Result{
				Success:          false,
				Error:            err.Error(),
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return &Result{
			Success:          false,
			Error:            fmt.Sprintf("analysis cancelled: %v", err),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}
	}

	report := &Report{
		ID:          uuid.NewString(),
		Filename:    filename,
		Metrics:     metrics,
		Structure:   structure,
		Entities:    entities,
		Sentiment:   sentiment,
		Sensitivity: sensitivity,
		Language:    a.detectLanguage(text),
		Summary:     a.summarize(text),
		AnalyzedAt:  time.Now().UTC(),
	}
	report.Recommendations = a.recommend(report)

	return &Result{
		Success:          true,
		Analysis:         report,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// detectLanguage picks the language whose function-word lexicon overlaps
// the text most, or "unknown" below the overlap floor.
func (a *Aggregator) detectLanguage(text string) string {
	words := tokenize(text)
	if len(words) == 0 {
		return "unknown"
	}

	best := "unknown"
	bestRatio := 0.0
	for language, lexicon := range languageLexicons {
		overlap := 0
		for _, w := range words {
			if lexicon[w] {
				overlap++
			}
		}
		ratio := float64(overlap) / float64(len(words))
		if ratio > bestRatio {
			bestRatio = ratio
			best = language
		}
	}

	if bestRatio < a.config.LanguageOverlapFloor {
		return "unknown"
	}
	return best
}

// summarize takes the first sentences that fit within the length budget,
// falling back to hard truncation when even the first sentence overruns.
func (a *Aggregator) summarize(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	budget := a.config.SummaryBudget
	if len(trimmed) <= budget {
		return trimmed
	}

	var sb strings.Builder
	for _, sentence := range splitSentences(trimmed) {
		// The joining space costs a byte only after the first sentence.
		separator := 0
		if sb.Len() > 0 {
			separator = 1
		}
		if sb.Len()+separator+len(sentence) > budget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(sentence)
	}
	if sb.Len() > 0 {
		return sb.String()
	}

	runes := []rune(trimmed)
	if len(runes) > budget {
		runes = runes[:budget]
	}
	return strings.TrimSpace(string(runes)) + "..."
}

// splitSentences is a rough sentence splitter for summarization.
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	terms := sentenceSplitRe.FindAllString(text, -1)

	var out []string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(terms) {
			part += strings.TrimSpace(terms[i])
		}
		out = append(out, part)
	}
	return out
}

// recommend derives rule-based recommendation strings from the sentiment
// label, sensitivity level and top emotion intensity.
func (a *Aggregator) recommend(report *Report) []string {
	var recs []string

	switch report.Sentiment.Label {
	case SentimentNegative:
		recs = append(recs, "Document tone is negative; review the content before wider distribution.")
	case SentimentPositive:
		recs = append(recs, "Document tone is positive; suitable for sharing as-is.")
	}

	switch report.Sensitivity {
	case SensitivityHigh:
		recs = append(recs, "High-sensitivity content detected; restrict access and consider redaction before sharing.")
	case SensitivityMedium:
		recs = append(recs, "Some sensitive content detected; handle according to your data policy.")
	}

	if len(report.Sentiment.Emotions) > 0 {
		top := report.Sentiment.Emotions[0]
		if top.Score >= a.config.StrongEmotionFloor {
			recs = append(recs, fmt.Sprintf("Strong %s tone detected; verify it matches the intended audience.", top.Emotion))
		}
	}

	return recs
}
