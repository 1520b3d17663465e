package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ParseResult is the output of the in-process parse capability consumed by
// the classifier's inspection pass and by the local backend.
type ParseResult struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Producer  string `json:"producer,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// LocalParser is the local parse capability. Implementations must treat
// the buffer as read-only.
type LocalParser interface {
	Parse(buf *DocumentBuffer) (*ParseResult, error)
}

// ClassifierConfig configures document-type classification behavior.
type ClassifierConfig struct {
	// RendererSignatures are producer/creator or content fingerprints of
	// rendering engines known to emit non-standard PDF structures.
	RendererSignatures []string `json:"renderer_signatures"`

	// ScanIndicators are content fingerprints of scanning software.
	ScanIndicators []string `json:"scan_indicators"`

	// PreferLocalForRendererArtifacts routes renderer-artifact documents
	// to the local parser instead of cloud OCR. This is a policy knob,
	// not a measured accuracy result.
	PreferLocalForRendererArtifacts bool `json:"prefer_local_for_renderer_artifacts"`
}

// DefaultClassifierConfig returns the default classification configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		RendererSignatures: []string{
			"skia/pdf",
			"headlesschrome",
			"chromium",
			"wkhtmltopdf",
		},
		ScanIndicators: []string{
			"scanned by",
			"scansnap",
			"epson scan",
			"naps2",
		},
		PreferLocalForRendererArtifacts: true,
	}
}

// Classification decision thresholds.
const (
	imageBasedTextThreshold  = 100
	scannedTextThreshold     = 200
	standardTextQualityFloor = 70.0
	standardTextMinNonWS     = 500
	confidenceRendererKnown  = 95
	confidenceImageBased     = 80
	confidenceScanned        = 75
	confidenceStandardText   = 95
	confidenceUnknown        = 60
	confidenceInspectFailed  = 30
	confidenceEncrypted      = 90
)

// Classifier labels a document buffer so the orchestrator can route it to
// the right extraction backend. The inspection parse is used purely for
// classification, never for final output.
type Classifier struct {
	config ClassifierConfig
	parser LocalParser
	logger *slog.Logger
}

// NewClassifier creates a classifier with the default configuration.
func NewClassifier(parser LocalParser, logger *slog.Logger) *Classifier {
	return NewClassifierWithConfig(DefaultClassifierConfig(), parser, logger)
}

// NewClassifierWithConfig creates a classifier with a custom configuration.
func NewClassifierWithConfig(config ClassifierConfig, parser LocalParser, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{config: config, parser: parser, logger: logger}
}

// Classify inspects a document buffer and returns a DocumentAnalysis with
// the recommended extraction backend. It fails only on an invalid buffer.
func (c *Classifier) Classify(buf *DocumentBuffer) (*DocumentAnalysis, error) {
	if buf.Empty() {
		return nil, ErrInvalidBuffer
	}

	inspection, err := c.parser.Parse(buf)
	if err != nil {
		if errors.Is(err, ErrEncryptedDocument) || (inspection != nil && inspection.Encrypted) {
			return &DocumentAnalysis{
				Type:               DocTypeUnknown,
				Confidence:         confidenceEncrypted,
				Reason:             "document is encrypted and cannot be parsed without a password",
				RecommendedBackend: MethodFallback,
				Encrypted:          true,
			}, nil
		}
		c.logger.Debug("inspection parse failed", "filename", buf.Filename, "error", err)
		return &DocumentAnalysis{
			Type:               DocTypeUnknown,
			Confidence:         confidenceInspectFailed,
			Reason:             fmt.Sprintf("inspection parse failed: %v", err),
			RecommendedBackend: MethodFallback,
		}, nil
	}

	if inspection.Encrypted {
		return &DocumentAnalysis{
			Type:               DocTypeUnknown,
			Confidence:         confidenceEncrypted,
			Reason:             "document reports encryption",
			RecommendedBackend: MethodFallback,
			Encrypted:          true,
		}, nil
	}

	return c.classifyInspection(inspection), nil
}

// classifyInspection applies the decision order to a successful inspection.
// First match wins.
func (c *Classifier) classifyInspection(inspection *ParseResult) *DocumentAnalysis {
	quality := AnalyzeQuality(inspection.Text)
	textLen := len(inspection.Text)

	if sig := c.matchRendererSignature(inspection); sig != "" {
		recommended := MethodCloudOCR
		if c.config.PreferLocalForRendererArtifacts {
			recommended = MethodLocalParser
		}
		return &DocumentAnalysis{
			Type:               DocTypeRendererArtifact,
			Confidence:         confidenceRendererKnown,
			Reason:             fmt.Sprintf("renderer signature %q detected; such engines emit non-standard structures the OCR service mishandles", sig),
			RecommendedBackend: recommended,
		}
	}

	if textLen < imageBasedTextThreshold && inspection.PageCount > 0 {
		return &DocumentAnalysis{
			Type:               DocTypeImageBased,
			Confidence:         confidenceImageBased,
			Reason:             fmt.Sprintf("%d pages but only %d chars of text; content is likely rasterized", inspection.PageCount, textLen),
			RecommendedBackend: MethodCloudOCR,
		}
	}

	if c.matchScanIndicator(inspection.Text) || textLen < scannedTextThreshold {
		return &DocumentAnalysis{
			Type:               DocTypeScanned,
			Confidence:         confidenceScanned,
			Reason:             "scan indicators or very little embedded text",
			RecommendedBackend: MethodCloudOCR,
		}
	}

	if quality.TextQuality > standardTextQualityFloor && quality.NonWhitespace > standardTextMinNonWS {
		return &DocumentAnalysis{
			Type:               DocTypeStandardText,
			Confidence:         confidenceStandardText,
			Reason:             fmt.Sprintf("clean embedded text (quality %.1f%%, %d non-whitespace chars)", quality.TextQuality, quality.NonWhitespace),
			RecommendedBackend: MethodCloudOCR,
		}
	}

	return &DocumentAnalysis{
		Type:               DocTypeUnknown,
		Confidence:         confidenceUnknown,
		Reason:             "no strong classification signals",
		RecommendedBackend: MethodLocalParser,
	}
}

// matchRendererSignature returns the first renderer signature found in the
// parser-reported producer/creator metadata or the text content.
func (c *Classifier) matchRendererSignature(inspection *ParseResult) string {
	haystacks := []string{
		strings.ToLower(inspection.Producer),
		strings.ToLower(inspection.Creator),
		strings.ToLower(inspection.Text),
	}
	for _, sig := range c.config.RendererSignatures {
		for _, h := range haystacks {
			if h != "" && strings.Contains(h, sig) {
				return sig
			}
		}
	}
	return ""
}

// matchScanIndicator reports whether the text carries scanner fingerprints.
func (c *Classifier) matchScanIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range c.config.ScanIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
