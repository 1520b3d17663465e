package analysis

import (
	"sort"
	"strings"
	"unicode"
)

// Sentiment thresholds and caps.
const (
	sentimentLabelThreshold = 0.1
	maxEmotions             = 5
	maxKeywords             = 10
)

// ComputeSentiment performs word-list-based polarity scoring with per-word
// emotion tagging. It is stateless and safe for concurrent use.
func ComputeSentiment(text string) SentimentResult {
	result := SentimentResult{Label: SentimentNeutral}

	words := tokenize(text)
	if len(words) == 0 {
		result.Confidence = 0.5
		return result
	}

	positiveHits := 0
	negativeHits := 0
	emotionHits := make(map[string]int)
	keywordPolarity := make(map[string]float64)
	keywordCount := make(map[string]int)
	keywordOrder := []string{}

	for _, word := range words {
		polarity := 0.0
		if positiveWords[word] {
			positiveHits++
			polarity = 1.0
		} else if negativeWords[word] {
			negativeHits++
			polarity = -1.0
		}

		if polarity != 0 {
			if _, ok := keywordCount[word]; !ok {
				keywordOrder = append(keywordOrder, word)
				keywordPolarity[word] = polarity
			}
			keywordCount[word]++
		}

		for emotion, lexicon := range emotionLexicons {
			if lexicon[word] {
				emotionHits[emotion]++
			}
		}
	}

	result.Score = float64(positiveHits-negativeHits) / float64(len(words))
	if result.Score > 1.0 {
		result.Score = 1.0
	}
	if result.Score < -1.0 {
		result.Score = -1.0
	}

	result.Magnitude = result.Score
	if result.Magnitude < 0 {
		result.Magnitude = -result.Magnitude
	}

	switch {
	case result.Score > sentimentLabelThreshold:
		result.Label = SentimentPositive
	case result.Score < -sentimentLabelThreshold:
		result.Label = SentimentNegative
	default:
		result.Label = SentimentNeutral
	}

	result.Confidence = 0.5 + result.Magnitude*0.45
	if result.Confidence > 0.95 {
		result.Confidence = 0.95
	}

	result.Emotions = topEmotions(emotionHits)
	result.Keywords = topKeywords(keywordOrder, keywordPolarity, keywordCount)

	return result
}

// topEmotions ranks emotion categories by relative intensity and keeps at
// most five, sorted descending by score.
func topEmotions(hits map[string]int) []EmotionScore {
	total := 0
	for _, n := range hits {
		total += n
	}
	if total == 0 {
		return nil
	}

	scores := make([]EmotionScore, 0, len(hits))
	for emotion, n := range hits {
		scores = append(scores, EmotionScore{
			Emotion: emotion,
			Score:   float64(n) / float64(total),
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Emotion < scores[j].Emotion
	})

	if len(scores) > maxEmotions {
		scores = scores[:maxEmotions]
	}
	return scores
}

// topKeywords weights each sentiment-bearing keyword by its polarity and
// occurrence count and keeps at most ten, sorted descending by absolute
// sentiment.
func topKeywords(order []string, polarity map[string]float64, count map[string]int) []KeywordSentiment {
	if len(order) == 0 {
		return nil
	}

	keywords := make([]KeywordSentiment, 0, len(order))
	for _, word := range order {
		weight := 0.5 + 0.1*float64(count[word])
		if weight > 1.0 {
			weight = 1.0
		}
		keywords = append(keywords, KeywordSentiment{
			Keyword:   word,
			Sentiment: polarity[word] * weight,
		})
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return abs(keywords[i].Sentiment) > abs(keywords[j].Sentiment)
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// ComputeSensitivity runs the sensitivity pattern sets over the text and
// maps the total hit count to a level: 0 hits is low, fewer than 3 is
// medium, 3 or more is high.
func ComputeSensitivity(text string) (SensitivityLevel, int) {
	hits := 0
	for _, patterns := range sensitivityPatterns {
		for _, p := range patterns {
			hits += len(p.FindAllString(text, -1))
		}
	}

	switch {
	case hits == 0:
		return SensitivityLow, hits
	case hits < 3:
		return SensitivityMedium, hits
	default:
		return SensitivityHigh, hits
	}
}

// tokenize lowercases and splits text into words, trimming surrounding
// punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
