package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// OrchestratorConfig centralizes the retry, timeout and cost knobs for
// extraction routing.
type OrchestratorConfig struct {
	// MaxRetries bounds retries of a transient backend failure before it
	// is reclassified as permanent.
	MaxRetries int `json:"max_retries"`

	// BackoffBase is the base delay for exponential backoff between
	// retries.
	BackoffBase time.Duration `json:"backoff_base"`

	// BackendTimeout bounds a single backend attempt. A timeout counts
	// as a transient failure against the retry budget.
	BackendTimeout time.Duration `json:"backend_timeout"`

	// CloudPerPageCost is the per-page rate charged by the OCR service.
	// Local parsing and fallback are zero-cost.
	CloudPerPageCost float64 `json:"cloud_per_page_cost"`
}

// DefaultOrchestratorConfig returns sensible orchestration defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRetries:       3,
		BackoffBase:      500 * time.Millisecond,
		BackendTimeout:   30 * time.Second,
		CloudPerPageCost: 0.0015,
	}
}

// garbledConfidenceCap caps the confidence of any extraction whose output
// the quality analyzer flags as garbled.
const garbledConfidenceCap = 0.1

// Orchestrator routes a document buffer to the backend recommended by
// classification, retries transient failures, and advances a strict
// one-directional fallback chain (cloud-ocr, then local-parser, then
// fallback) on permanent failure. Extract never returns an error: every
// failure mode resolves into an ExtractionResult.
type Orchestrator struct {
	config     OrchestratorConfig
	classifier *Classifier
	cloud      Backend // nil when no OCR service is configured
	local      Backend
	logger     *slog.Logger
}

// NewOrchestrator creates an extraction orchestrator. The cloud backend
// may be nil, in which case cloud-ocr recommendations degrade to the local
// parser with a recorded warning.
func NewOrchestrator(config OrchestratorConfig, classifier *Classifier, cloud, local Backend, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:     config,
		classifier: classifier,
		cloud:      cloud,
		local:      local,
		logger:     logger,
	}
}

// Extract runs the full routing flow for one document buffer.
func (o *Orchestrator) Extract(ctx context.Context, buf *DocumentBuffer, filename string) *ExtractionResult {
	start := time.Now()

	analysis, err := o.classifier.Classify(buf)
	if err != nil {
		if errors.Is(err, ErrInvalidBuffer) {
			return o.fallbackResult(ctx, buf, filename, start, []string{ErrInvalidBuffer.Error()})
		}
		// Classifier failed internally; synthesize a minimal analysis
		// rather than aborting.
		o.logger.Warn("classification failed, synthesizing analysis", "filename", filename, "error", err)
		analysis = &DocumentAnalysis{
			Type:               DocTypeUnknown,
			Confidence:         0,
			Reason:             fmt.Sprintf("classification failed: %v", err),
			RecommendedBackend: MethodFallback,
		}
	}

	if analysis.Encrypted {
		return o.fallbackResult(ctx, buf, filename, start, []string{ErrEncryptedDocument.Error()})
	}

	chain, failures := o.buildChain(analysis.RecommendedBackend)
	if len(chain) == 0 && analysis.Reason != "" {
		failures = append(failures, analysis.Reason)
	}

	for _, backend := range chain {
		if err := ctx.Err(); err != nil {
			return o.cancelledResult(buf, filename, start, failures)
		}

		result, err := o.runWithRetry(ctx, backend, buf, filename)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return o.cancelledResult(buf, filename, start, failures)
			}
			failures = append(failures, err.Error())
			o.logger.Info("backend failed permanently, advancing fallback chain",
				"backend", backend.Method(), "filename", filename, "error", err)
			continue
		}

		return o.finalize(result, backend.Method(), start, failures)
	}

	return o.fallbackResult(ctx, buf, filename, start, failures)
}

// buildChain returns the ordered backends to try for a recommendation.
// The chain is a strict suffix of [cloud-ocr, local-parser]; it never
// revisits a higher-cost backend after falling past it.
func (o *Orchestrator) buildChain(recommended Method) ([]Backend, []string) {
	var failures []string

	switch recommended {
	case MethodCloudOCR:
		if o.cloud == nil {
			failures = append(failures, "cloud-ocr backend not configured")
			return []Backend{o.local}, failures
		}
		return []Backend{o.cloud, o.local}, nil
	case MethodLocalParser:
		return []Backend{o.local}, nil
	default:
		return nil, nil
	}
}

// runWithRetry executes one backend with a per-attempt timeout, retrying
// transient failures with exponential backoff until the retry budget is
// exhausted, at which point the last error is treated as permanent.
func (o *Orchestrator) runWithRetry(ctx context.Context, backend Backend, buf *DocumentBuffer, filename string) (*BackendResult, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(o.config.BackoffBase, attempt-1)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.config.BackendTimeout)
		result, err := backend.Run(attemptCtx, buf, filename)
		cancel()

		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// Per-attempt timeout, not caller cancellation.
			err = NewTransientError(backend.Method(), "run", err)
		}
		lastErr = err

		if !IsTransient(err) || ctx.Err() != nil {
			break
		}
		o.logger.Debug("transient backend failure, retrying",
			"backend", backend.Method(), "attempt", attempt+1, "error", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, lastErr
}

// finalize attaches quality, cost and timing metadata to a successful
// backend result.
func (o *Orchestrator) finalize(result *BackendResult, method Method, start time.Time, failures []string) *ExtractionResult {
	out := &ExtractionResult{
		Text:             result.Text,
		WordCount:        result.WordCount,
		PageCount:        result.PageCount,
		Confidence:       result.Confidence,
		Method:           method,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Warnings:         append([]string(nil), result.Warnings...),
		Errors:           append([]string(nil), result.Errors...),
	}

	if method == MethodCloudOCR {
		out.CostEstimate = float64(out.PageCount) * o.config.CloudPerPageCost
	}

	quality := AnalyzeQuality(out.Text)
	if quality.Garbled {
		if out.Confidence > garbledConfidenceCap {
			out.Confidence = garbledConfidenceCap
		}
		out.Warnings = append(out.Warnings,
			"low confidence: extracted text appears garbled or low-information")
	}
	if strings.TrimSpace(out.Text) == "" {
		out.Confidence = 0
	}

	if len(failures) > 0 {
		out.Warnings = append(out.Warnings, failures...)
	}

	return out
}

// fallbackResult runs the terminal backend, which cannot fail, and records
// the accumulated failure chain in the result errors.
func (o *Orchestrator) fallbackResult(ctx context.Context, buf *DocumentBuffer, filename string, start time.Time, failures []string) *ExtractionResult {
	fallback := NewFallbackExtractor(failures...)
	result, _ := fallback.Run(ctx, buf, filename)

	return &ExtractionResult{
		Text:             result.Text,
		WordCount:        result.WordCount,
		PageCount:        result.PageCount,
		Confidence:       result.Confidence,
		Method:           MethodFallback,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Errors:           append([]string(nil), failures...),
	}
}

// cancelledResult returns the best available partial result with an
// explicit cancelled tag instead of raising.
func (o *Orchestrator) cancelledResult(buf *DocumentBuffer, filename string, start time.Time, failures []string) *ExtractionResult {
	errs := append([]string(nil), failures...)
	errs = append(errs, ErrCancelled.Error())

	fallback := NewFallbackExtractor(errs...)
	result, _ := fallback.Run(context.Background(), buf, filename)

	return &ExtractionResult{
		Text:             result.Text,
		WordCount:        result.WordCount,
		PageCount:        result.PageCount,
		Confidence:       result.Confidence,
		Method:           MethodFallback,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Errors:           errs,
	}
}

// backoff returns the delay before retry attempt n (0-indexed), with
// jitter to avoid thundering herds against the OCR service.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base << uint(attempt)
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/2 + 1))
	return delay + jitter
}
