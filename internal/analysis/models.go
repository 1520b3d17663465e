// Package analysis implements the multi-stage content analysis that runs
// over extracted document text: metrics, structure, entities, sentiment,
// and the derived sensitivity, language, summary and recommendations.
package analysis

import (
	"time"
)

// TextMetrics provides statistical counts over the extracted text.
type TextMetrics struct {
	WordCount           int     `json:"word_count"`
	CharacterCount      int     `json:"character_count"`
	SentenceCount       int     `json:"sentence_count"`
	ParagraphCount      int     `json:"paragraph_count"`
	AvgCharsPerWord     float64 `json:"avg_chars_per_word"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	ReadingTimeMinutes  float64 `json:"reading_time_minutes"`
	ComplexityScore     float64 `json:"complexity_score"` // 0 to 10
}

// TextStructure flags structural elements detected via line-pattern
// heuristics.
type TextStructure struct {
	HasHeaders    bool `json:"has_headers"`
	HasLists      bool `json:"has_lists"`
	HasTables     bool `json:"has_tables"`
	HasCodeBlocks bool `json:"has_code_blocks"`
	HasFootnotes  bool `json:"has_footnotes"`
	HasReferences bool `json:"has_references"`
	LineCount     int  `json:"line_count"`
}

// EntityKind names a category of extracted entities.
type EntityKind string

const (
	EntityDates         EntityKind = "dates"
	EntityNames         EntityKind = "names"
	EntityAmounts       EntityKind = "amounts"
	EntityOrganizations EntityKind = "organizations"
	EntityEmails        EntityKind = "emails"
	EntityPhoneNumbers  EntityKind = "phoneNumbers"
	EntityAddresses     EntityKind = "addresses"
	EntityURLs          EntityKind = "urls"
	EntitySSNs          EntityKind = "ssns"
	EntityCreditCards   EntityKind = "creditCards"
	EntityIPAddresses   EntityKind = "ipAddresses"
)

// EntityBundle maps each entity kind to an ordered, de-duplicated list of
// matched strings. Order is first occurrence; duplicates are removed by
// exact string equality.
type EntityBundle map[EntityKind][]string

// SentimentLabel is the coarse polarity of a document.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// EmotionScore is the relative intensity of one emotion category.
type EmotionScore struct {
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
}

// KeywordSentiment is a sentiment-bearing keyword with its polarity
// weight.
type KeywordSentiment struct {
	Keyword   string  `json:"keyword"`
	Sentiment float64 `json:"sentiment"`
}

// SentimentResult is the output of lexicon-based sentiment analysis.
type SentimentResult struct {
	Score      float64            `json:"score"`     // -1.0 to 1.0
	Magnitude  float64            `json:"magnitude"` // 0.0 to 1.0
	Label      SentimentLabel     `json:"label"`
	Confidence float64            `json:"confidence"`
	Emotions   []EmotionScore     `json:"emotions,omitempty"` // at most 5, sorted desc by score
	Keywords   []KeywordSentiment `json:"keywords,omitempty"` // at most 10, sorted desc by |sentiment|
}

// SensitivityLevel is a coarse classification of how much
// personally-identifying or confidential content a document likely
// contains.
type SensitivityLevel string

const (
	SensitivityLow    SensitivityLevel = "low"
	SensitivityMedium SensitivityLevel = "medium"
	SensitivityHigh   SensitivityLevel = "high"
)

// Report aggregates every analysis stage for one text. It is built once
// per extracted text and read-only after construction; consumers must
// request a new analysis rather than mutate a report.
type Report struct {
	ID              string           `json:"id"`
	Filename        string           `json:"filename,omitempty"`
	Metrics         TextMetrics      `json:"metrics"`
	Structure       TextStructure    `json:"structure"`
	Entities        EntityBundle     `json:"entities"`
	Sentiment       SentimentResult  `json:"sentiment"`
	Sensitivity     SensitivityLevel `json:"sensitivity"`
	Language        string           `json:"language"`
	Summary         string           `json:"summary"`
	Recommendations []string         `json:"recommendations,omitempty"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}

// Result is the envelope returned by the aggregator. A failed stage fails
// the whole call: a silently-incomplete structured report is more
// dangerous than a clear failure.
type Result struct {
	Success          bool    `json:"success"`
	Analysis         *Report `json:"analysis,omitempty"`
	Error            string  `json:"error,omitempty"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}
