package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestComputeSentimentPositive(t *testing.T) {
	text := "We are thrilled with the results. The team did great work and everyone is excited about the success."

	result := ComputeSentiment(text)

	if result.Label != SentimentPositive {
		t.Fatalf("Expected positive label, got %s", result.Label)
	}
	if result.Score <= 0 {
		t.Errorf("Expected positive score, got %f", result.Score)
	}
	if result.Magnitude != math.Abs(result.Score) {
		t.Errorf("Expected magnitude |score|, got %f vs %f", result.Magnitude, result.Score)
	}

	wantConfidence := 0.5 + result.Magnitude*0.45
	if wantConfidence > 0.95 {
		wantConfidence = 0.95
	}
	if math.Abs(result.Confidence-wantConfidence) > 0.001 {
		t.Errorf("Expected confidence %f, got %f", wantConfidence, result.Confidence)
	}

	if len(result.Emotions) == 0 {
		t.Fatal("Expected emotion scores")
	}
	if result.Emotions[0].Emotion != "joy" {
		t.Errorf("Expected joy as top emotion, got %s", result.Emotions[0].Emotion)
	}
}

func TestComputeSentimentNegative(t *testing.T) {
	text := "The rollout was a terrible failure. Customers are angry and frustrated, and the team is worried about the damage."

	result := ComputeSentiment(text)

	if result.Label != SentimentNegative {
		t.Fatalf("Expected negative label, got %s", result.Label)
	}
	if result.Score >= 0 {
		t.Errorf("Expected negative score, got %f", result.Score)
	}
}

func TestComputeSentimentNeutral(t *testing.T) {
	text := "The meeting starts at nine. Minutes will be distributed afterwards by the secretary."

	result := ComputeSentiment(text)

	if result.Label != SentimentNeutral {
		t.Fatalf("Expected neutral label, got %s", result.Label)
	}
	if result.Score != 0 {
		t.Errorf("Expected zero score, got %f", result.Score)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Expected baseline confidence 0.5, got %f", result.Confidence)
	}
}

func TestComputeSentimentEmptyText(t *testing.T) {
	result := ComputeSentiment("")

	if result.Label != SentimentNeutral {
		t.Errorf("Expected neutral label for empty text, got %s", result.Label)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %f", result.Confidence)
	}
	if len(result.Emotions) != 0 || len(result.Keywords) != 0 {
		t.Error("Expected no emotions or keywords for empty text")
	}
}

func TestComputeSentimentKeywords(t *testing.T) {
	text := "great great great results despite one problem"

	result := ComputeSentiment(text)

	if len(result.Keywords) != 2 {
		t.Fatalf("Expected 2 keywords, got %v", result.Keywords)
	}

	// "great" occurs three times: weight 0.5 + 0.3 = 0.8 positive.
	// "problem" occurs once: weight 0.6 negative.
	if result.Keywords[0].Keyword != "great" {
		t.Errorf("Expected strongest keyword first, got %s", result.Keywords[0].Keyword)
	}
	if math.Abs(result.Keywords[0].Sentiment-0.8) > 0.001 {
		t.Errorf("Expected keyword sentiment 0.8, got %f", result.Keywords[0].Sentiment)
	}
	if math.Abs(result.Keywords[1].Sentiment+0.6) > 0.001 {
		t.Errorf("Expected keyword sentiment -0.6, got %f", result.Keywords[1].Sentiment)
	}
}

func TestComputeSentimentScoreClamped(t *testing.T) {
	result := ComputeSentiment(strings.TrimSpace(strings.Repeat("great ", 50)))

	if result.Score < -1 || result.Score > 1 {
		t.Errorf("Expected score in [-1, 1], got %f", result.Score)
	}
	if result.Confidence > 0.95 {
		t.Errorf("Expected confidence capped at 0.95, got %f", result.Confidence)
	}
}

func TestComputeSensitivityLevels(t *testing.T) {
	cases := []struct {
		name string
		text string
		want SensitivityLevel
	}{
		{"clean", "The weather report predicts light rain tomorrow afternoon.", SensitivityLow},
		{"single hit", "Please keep this confidential until the announcement.", SensitivityMedium},
		{"many hits", "Confidential: the litigation over the fraud investigation names SSN 123-45-6789.", SensitivityHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, _ := ComputeSensitivity(tc.text)
			if level != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, level)
			}
		})
	}
}

func TestComputeSensitivityMonotonic(t *testing.T) {
	base := "The quarterly summary is attached."
	_, baseHits := ComputeSensitivity(base)

	richer := base + " It includes the settlement agreement and salary details."
	_, richerHits := ComputeSensitivity(richer)

	if richerHits < baseHits {
		t.Errorf("Adding sensitive content must not lower hit count: %d -> %d", baseHits, richerHits)
	}
	if richerHits <= baseHits {
		t.Errorf("Expected additional hits for added sensitive terms, got %d -> %d", baseHits, richerHits)
	}
}

func TestTokenizeTrimsPunctuation(t *testing.T) {
	words := tokenize("Great! (Really great.) 100%")

	want := []string{"great", "really", "great", "100"}
	if len(words) != len(want) {
		t.Fatalf("Expected %v, got %v", want, words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, words)
			break
		}
	}
}
