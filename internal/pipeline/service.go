// Package pipeline exposes the document extraction and analysis core to
// callers: ExtractText, AnalyzeText, and the RunFullPipeline composition.
// Transport layers (MCP, HTTP, CLIs) stay out of this package.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-ai/docsense/internal/analysis"
	"github.com/inkwell-ai/docsense/internal/config"
	"github.com/inkwell-ai/docsense/internal/extraction"
	"github.com/inkwell-ai/docsense/internal/ocr"
)

// Service composes the extraction orchestrator and the analysis
// aggregator behind one API.
type Service struct {
	orchestrator *extraction.Orchestrator
	aggregator   *analysis.Aggregator
	maxFileSize  int64
	logger       *slog.Logger
}

// New creates a service from pre-built components. Use NewFromConfig for
// the standard wiring.
func New(orchestrator *extraction.Orchestrator, aggregator *analysis.Aggregator, maxFileSize int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orchestrator: orchestrator,
		aggregator:   aggregator,
		maxFileSize:  maxFileSize,
		logger:       logger,
	}
}

// NewFromConfig wires the standard pipeline: local parser, classifier,
// cloud OCR backend when configured, orchestrator and aggregator.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	parser := extraction.NewDefaultParser()
	classifier := extraction.NewClassifier(parser, logger)
	local := extraction.NewLocalParserExtractor(parser)

	var cloud extraction.Backend
	if cfg.CloudEnabled() {
		clientCfg := ocr.DefaultClientConfig(cfg.OCREndpoint, cfg.OCRAPIKey)
		clientCfg.RequestsPerSecond = cfg.OCRRateLimit
		client := ocr.NewClient(clientCfg, logger)
		store := ocr.NewStore(cfg.StoreEndpoint, cfg.OCRAPIKey, clientCfg.Timeout, logger)
		cloud = extraction.NewCloudOCRExtractor(store, client, cfg.OCRBucket, logger)
	}

	orchestratorCfg := extraction.OrchestratorConfig{
		MaxRetries:       cfg.MaxRetries,
		BackoffBase:      time.Duration(cfg.BackoffMs) * time.Millisecond,
		BackendTimeout:   time.Duration(cfg.BackendTimeoutMs) * time.Millisecond,
		CloudPerPageCost: cfg.PerPageCost,
	}
	orchestrator := extraction.NewOrchestrator(orchestratorCfg, classifier, cloud, local, logger)
	aggregator := analysis.NewAggregator(logger)

	return New(orchestrator, aggregator, cfg.MaxFileSize, logger)
}

// FullResult is the output of the full-pipeline composition.
type FullResult struct {
	Extraction *extraction.ExtractionResult `json:"extraction"`
	Analysis   *analysis.Result             `json:"analysis"`
}

// ExtractText runs classification, backend routing and quality scoring
// over a document buffer. It never returns an error; every failure mode
// is encoded in the result.
func (s *Service) ExtractText(ctx context.Context, buf *extraction.DocumentBuffer) *extraction.ExtractionResult {
	if s.maxFileSize > 0 && buf != nil && int64(len(buf.Data)) > s.maxFileSize {
		return &extraction.ExtractionResult{
			Method:     extraction.MethodFallback,
			Confidence: 0,
			Errors: []string{
				fmt.Sprintf("document exceeds maximum size (%d > %d bytes)", len(buf.Data), s.maxFileSize),
			},
		}
	}

	filename := ""
	if buf != nil {
		filename = buf.Filename
	}
	result := s.orchestrator.Extract(ctx, buf, filename)

	s.logger.Info("extraction finished",
		"filename", filename,
		"method", result.Method,
		"confidence", result.Confidence,
		"pages", result.PageCount,
		"elapsed_ms", result.ProcessingTimeMs)

	return result
}

// AnalyzeText runs the four-stage analysis pipeline over extracted text.
// A failed stage fails the whole call; no partial report is returned.
func (s *Service) AnalyzeText(ctx context.Context, text, filename string) *analysis.Result {
	result := s.aggregator.Analyze(ctx, text, filename)

	s.logger.Info("analysis finished",
		"filename", filename,
		"success", result.Success,
		"elapsed_ms", result.ProcessingTimeMs)

	return result
}

// RunFullPipeline extracts text from a buffer and analyzes it in one
// call.
func (s *Service) RunFullPipeline(ctx context.Context, buf *extraction.DocumentBuffer) *FullResult {
	filename := ""
	if buf != nil {
		filename = buf.Filename
	}

	extracted := s.ExtractText(ctx, buf)
	analyzed := s.AnalyzeText(ctx, extracted.Text, filename)

	return &FullResult{
		Extraction: extracted,
		Analysis:   analyzed,
	}
}
