package extraction

import (
	"context"
	"fmt"
	"strings"
)

// fallbackConfidence is deliberately non-zero so downstream consumers know
// some structured output exists, while staying clearly below the
// high-confidence threshold.
const fallbackConfidence = 0.6

// FallbackExtractor terminates the fallback chain. It never fails: it
// emits a diagnostic text body describing the failure chain, the document
// size, and suggested remediation. The orchestrator constructs one per
// extraction call with the failures accumulated so far.
type FallbackExtractor struct {
	failures []string
}

// NewFallbackExtractor creates the terminal backend. The failures list
// records the upstream backend errors, in the order they occurred.
func NewFallbackExtractor(failures ...string) *FallbackExtractor {
	return &FallbackExtractor{failures: failures}
}

// Method identifies this backend.
func (e *FallbackExtractor) Method() Method {
	return MethodFallback
}

// Run builds the diagnostic stub. It cannot fail.
func (e *FallbackExtractor) Run(_ context.Context, buf *DocumentBuffer, filename string) (*BackendResult, error) {
	size := 0
	mimeType := ""
	if buf != nil {
		size = len(buf.Data)
		mimeType = buf.MIMEType
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Text extraction was unable to process %q (%d bytes", filename, size))
	if mimeType != "" {
		sb.WriteString(", " + mimeType)
	}
	sb.WriteString(").\n")

	if len(e.failures) > 0 {
		sb.WriteString("\nFailure chain:\n")
		for i, failure := range e.failures {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, failure))
		}
	}

	sb.WriteString("\nSuggested remediation: verify the file is not corrupted or password protected, ")
	sb.WriteString("re-export it from the source application, or upload a text-based version.")

	text := sb.String()
	return &BackendResult{
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		PageCount:  0,
		Confidence: fallbackConfidence,
	}, nil
}
