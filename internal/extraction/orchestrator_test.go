package extraction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"
)

// scriptedBackend pops one response per Run call.
type scriptedBackend struct {
	mu      sync.Mutex
	method  Method
	results []*BackendResult
	errs    []error
	calls   int
}

func (b *scriptedBackend) Method() Method {
	return b.method
}

func (b *scriptedBackend) Run(_ context.Context, _ *DocumentBuffer, _ string) (*BackendResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.calls
	b.calls++
	var result *BackendResult
	var err error
	if i < len(b.results) {
		result = b.results[i]
	}
	if i < len(b.errs) {
		err = b.errs[i]
	}
	return result, err
}

func (b *scriptedBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func fastConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRetries:       2,
		BackoffBase:      time.Millisecond,
		BackendTimeout:   time.Second,
		CloudPerPageCost: 0.0015,
	}
}

func cloudRecommendingClassifier(t *testing.T) *Classifier {
	t.Helper()
	text := strings.Repeat("The annual report covers revenue and operating margins in detail. ", 20)
	return NewClassifier(&stubParser{result: &ParseResult{Text: text, PageCount: 5}}, nil)
}

func localRecommendingClassifier(t *testing.T) *Classifier {
	t.Helper()
	// Low-quality text resolves to unknown, which routes local.
	text := strings.Repeat("word      \n\n\n\n\n\n\n\n  ", 40)
	return NewClassifier(&stubParser{result: &ParseResult{Text: text, PageCount: 1}}, nil)
}

func goodResult(pages int) *BackendResult {
	text := strings.Repeat("Extracted sentence with enough plausible words to score well. ", 10)
	return &BackendResult{
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		PageCount:  pages,
		Confidence: 0.95,
	}
}

func TestExtractCloudSuccess(t *testing.T) {
	cloud := &scriptedBackend{method: MethodCloudOCR, results: []*BackendResult{goodResult(4)}}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Method != MethodCloudOCR {
		t.Fatalf("Expected cloud-ocr, got %s", result.Method)
	}
	if result.CostEstimate != 4*0.0015 {
		t.Errorf("Expected cost %f, got %f", 4*0.0015, result.CostEstimate)
	}
	if local.callCount() != 0 {
		t.Error("Local backend should not run when cloud succeeds")
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}

func TestExtractLocalSuccessHasNoCost(t *testing.T) {
	cloud := &scriptedBackend{method: MethodCloudOCR}
	local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{goodResult(1)}}

	o := NewOrchestrator(fastConfig(), localRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.txt")

	if result.Method != MethodLocalParser {
		t.Fatalf("Expected local-parser, got %s", result.Method)
	}
	if result.CostEstimate != 0 {
		t.Errorf("Local extraction must be zero-cost, got %f", result.CostEstimate)
	}
	if cloud.callCount() != 0 {
		t.Error("Cloud backend must never run on a local recommendation")
	}
}

func TestExtractFallsFromCloudToLocal(t *testing.T) {
	cloud := &scriptedBackend{
		method: MethodCloudOCR,
		errs:   []error{NewPermanentError(MethodCloudOCR, "detect_text", errors.New("unsupported format"))},
	}
	local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{goodResult(1)}}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Method != MethodLocalParser {
		t.Fatalf("Expected local-parser after cloud failure, got %s", result.Method)
	}
	if result.CostEstimate != 0 {
		t.Errorf("Expected zero cost after falling to local, got %f", result.CostEstimate)
	}
	// The cloud failure is surfaced as a warning on the successful result.
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "unsupported format") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected cloud failure recorded in warnings, got %v", result.Warnings)
	}
}

func TestExtractRetriesTransientFailures(t *testing.T) {
	cloud := &scriptedBackend{
		method: MethodCloudOCR,
		errs: []error{
			NewTransientError(MethodCloudOCR, "detect_text", errors.New("503")),
			NewTransientError(MethodCloudOCR, "detect_text", errors.New("503")),
			nil,
		},
		results: []*BackendResult{nil, nil, goodResult(2)},
	}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Method != MethodCloudOCR {
		t.Fatalf("Expected cloud-ocr after retries, got %s", result.Method)
	}
	if cloud.callCount() != 3 {
		t.Errorf("Expected 3 attempts, got %d", cloud.callCount())
	}
}

func TestExtractRetryBudgetExhausted(t *testing.T) {
	transient := NewTransientError(MethodCloudOCR, "detect_text", errors.New("503"))
	cloud := &scriptedBackend{
		method: MethodCloudOCR,
		errs:   []error{transient, transient, transient, transient},
	}
	local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{goodResult(1)}}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	// MaxRetries=2 means 3 attempts, then the chain advances.
	if cloud.callCount() != 3 {
		t.Errorf("Expected 3 attempts before advancing, got %d", cloud.callCount())
	}
	if result.Method != MethodLocalParser {
		t.Fatalf("Expected local-parser after retry budget exhausted, got %s", result.Method)
	}
}

func TestExtractPermanentFailureDoesNotRetry(t *testing.T) {
	cloud := &scriptedBackend{
		method: MethodCloudOCR,
		errs:   []error{NewPermanentError(MethodCloudOCR, "detect_text", errors.New("bad input"))},
	}
	local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{goodResult(1)}}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if cloud.callCount() != 1 {
		t.Errorf("Permanent failures must not be retried, got %d attempts", cloud.callCount())
	}
}

func TestExtractAllBackendsFail(t *testing.T) {
	cloud := &scriptedBackend{
		method: MethodCloudOCR,
		errs:   []error{NewPermanentError(MethodCloudOCR, "detect_text", errors.New("cloud broke"))},
	}
	local := &scriptedBackend{
		method: MethodLocalParser,
		errs:   []error{NewPermanentError(MethodLocalParser, "parse", errors.New("local broke"))},
	}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Method != MethodFallback {
		t.Fatalf("Expected fallback, got %s", result.Method)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected both failures recorded, got %v", result.Errors)
	}
	if !strings.Contains(result.Text, "cloud broke") || !strings.Contains(result.Text, "local broke") {
		t.Errorf("Expected failure chain in diagnostic body, got %q", result.Text)
	}
}

func TestExtractCloudUnconfigured(t *testing.T) {
	local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{goodResult(1)}}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), nil, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Method != MethodLocalParser {
		t.Fatalf("Expected local-parser when cloud unconfigured, got %s", result.Method)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "not configured") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected unconfigured-cloud warning, got %v", result.Warnings)
	}
}

func TestExtractInvalidBuffer(t *testing.T) {
	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), nil,
		&scriptedBackend{method: MethodLocalParser}, nil)

	for _, buf := range []*DocumentBuffer{nil, {}} {
		result := o.Extract(context.Background(), buf, "empty.pdf")
		if result.Method != MethodFallback {
			t.Fatalf("Expected fallback for invalid buffer, got %s", result.Method)
		}
		if len(result.Errors) == 0 {
			t.Error("Expected invalid-buffer error recorded")
		}
	}
}

func TestExtractEncryptedDocument(t *testing.T) {
	classifier := NewClassifier(&stubParser{err: ErrEncryptedDocument}, nil)
	cloud := &scriptedBackend{method: MethodCloudOCR}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), classifier, cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "locked.pdf")

	if result.Method != MethodFallback {
		t.Fatalf("Expected fallback for encrypted document, got %s", result.Method)
	}
	if cloud.callCount() != 0 || local.callCount() != 0 {
		t.Error("No extraction backend should run for an encrypted document")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "encrypted") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected encryption error recorded, got %v", result.Errors)
	}
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cloud := &scriptedBackend{method: MethodCloudOCR, results: []*BackendResult{goodResult(1)}}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(ctx, testBuffer(), "doc.pdf")

	if result.Method != MethodFallback {
		t.Fatalf("Expected fallback result on cancellation, got %s", result.Method)
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "cancelled") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected cancellation recorded in errors, got %v", result.Errors)
	}
}

func TestExtractGarbledOutputCapsConfidence(t *testing.T) {
	garbled := strings.Repeat("�� ", 200)
	cloud := &scriptedBackend{method: MethodCloudOCR, results: []*BackendResult{{
		Text:       garbled,
		WordCount:  200,
		PageCount:  2,
		Confidence: 0.99,
	}}}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Confidence > garbledConfidenceCap {
		t.Errorf("Expected confidence capped at %f, got %f", garbledConfidenceCap, result.Confidence)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "garbled") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected garbled warning, got %v", result.Warnings)
	}
}

// garbleText replaces the leading fraction of non-space runes with the
// replacement character, so higher fractions strictly extend lower ones.
func garbleText(text string, fraction float64) string {
	runes := []rune(text)
	replaceable := 0
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			replaceable++
		}
	}
	remaining := int(float64(replaceable) * fraction)
	for i, r := range runes {
		if remaining == 0 {
			break
		}
		if !unicode.IsSpace(r) {
			runes[i] = '�'
			remaining--
		}
	}
	return string(runes)
}

func TestExtractConfidenceNonIncreasingWithGarbledDensity(t *testing.T) {
	base := strings.Repeat("Quarterly revenue grew steadily across all regions. ", 10)

	prev := 1.1
	for _, fraction := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0} {
		local := &scriptedBackend{method: MethodLocalParser, results: []*BackendResult{{
			Text:       garbleText(base, fraction),
			WordCount:  len(strings.Fields(base)),
			PageCount:  1,
			Confidence: 0.95,
		}}}

		o := NewOrchestrator(fastConfig(), localRecommendingClassifier(t), nil, local, nil)
		result := o.Extract(context.Background(), testBuffer(), "doc.txt")

		if result.Confidence > prev {
			t.Fatalf("Confidence rose from %f to %f at garbled density %.1f",
				prev, result.Confidence, fraction)
		}
		prev = result.Confidence
	}

	// The fully garbled endpoint must end up at or below the cap.
	if prev > garbledConfidenceCap {
		t.Errorf("Expected final confidence at most %f, got %f", garbledConfidenceCap, prev)
	}
}

func TestExtractEmptyTextZeroConfidence(t *testing.T) {
	cloud := &scriptedBackend{method: MethodCloudOCR, results: []*BackendResult{{
		Text:       "   ",
		Confidence: 0.9,
		PageCount:  1,
	}}}
	local := &scriptedBackend{method: MethodLocalParser}

	o := NewOrchestrator(fastConfig(), cloudRecommendingClassifier(t), cloud, local, nil)
	result := o.Extract(context.Background(), testBuffer(), "doc.pdf")

	if result.Confidence != 0 {
		t.Errorf("Expected zero confidence for whitespace-only text, got %f", result.Confidence)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	base := 100 * time.Millisecond

	small := backoff(base, 0)
	if small < base {
		t.Errorf("Expected at least base delay, got %v", small)
	}

	huge := backoff(base, 20)
	if huge > 45*time.Second {
		t.Errorf("Expected capped delay near 30s plus jitter, got %v", huge)
	}
}
