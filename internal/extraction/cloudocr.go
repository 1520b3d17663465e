package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectRef identifies a temporary upload in the object store.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// ObjectStore provides temporary storage for documents handed to the OCR
// service. The extractor deletes every upload on completion regardless of
// outcome.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Delete(ctx context.Context, bucket, key string) error
}

// BlockKind distinguishes OCR output units.
type BlockKind string

const (
	BlockLine BlockKind = "line"
	BlockPage BlockKind = "page" // page delimiter, carries no text
)

// LineBlock is one unit of OCR service output, delivered in document
// order. Confidence is service-reported on a 0 to 100 scale.
type LineBlock struct {
	Kind       BlockKind `json:"kind"`
	Text       string    `json:"text,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// OCRClient invokes the remote OCR/document-text service against a stored
// object.
type OCRClient interface {
	DetectText(ctx context.Context, ref ObjectRef) ([]LineBlock, error)
}

// CloudOCRExtractor extracts text through a remote OCR service. It is the
// highest-accuracy, highest-cost backend.
type CloudOCRExtractor struct {
	store  ObjectStore
	client OCRClient
	bucket string
	logger *slog.Logger
}

// NewCloudOCRExtractor creates the cloud OCR backend. Both clients are
// injected so the pipeline is testable with fakes.
func NewCloudOCRExtractor(store ObjectStore, client OCRClient, bucket string, logger *slog.Logger) *CloudOCRExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudOCRExtractor{store: store, client: client, bucket: bucket, logger: logger}
}

// Method identifies this backend.
func (e *CloudOCRExtractor) Method() Method {
	return MethodCloudOCR
}

// Run uploads the buffer, invokes text detection and aggregates the
// returned line blocks. The temporary upload is deleted on every exit
// path; a failed delete is logged but never escalated, since it does not
// affect extraction correctness.
func (e *CloudOCRExtractor) Run(ctx context.Context, buf *DocumentBuffer, filename string) (*BackendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewTransientError(MethodCloudOCR, "run", err)
	}

	ref := ObjectRef{Bucket: e.bucket, Key: uploadKey(filename)}

	if err := e.store.Put(ctx, ref.Bucket, ref.Key, buf.Data); err != nil {
		return nil, e.classify("upload", err)
	}
	defer func() {
		if err := e.store.Delete(context.WithoutCancel(ctx), ref.Bucket, ref.Key); err != nil {
			e.logger.Warn("failed to delete temporary upload",
				"bucket", ref.Bucket, "key", ref.Key, "error", err)
		}
	}()

	blocks, err := e.client.DetectText(ctx, ref)
	if err != nil {
		return nil, e.classify("detect_text", err)
	}

	result := aggregateBlocks(blocks)
	if strings.TrimSpace(result.Text) == "" {
		return nil, NewPermanentError(MethodCloudOCR, "detect_text",
			fmt.Errorf("service detected no text in %s", filename))
	}
	return result, nil
}

// classify wraps a client error for the orchestrator. Clients may return
// a *BackendError directly to control retry behavior; anything untyped is
// assumed to be a network/service hiccup worth retrying.
func (e *CloudOCRExtractor) classify(op string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return NewTransientError(MethodCloudOCR, op, err)
}

// aggregateBlocks joins line blocks in document order, averages their
// confidence scores, and derives the page count from page delimiters.
func aggregateBlocks(blocks []LineBlock) *BackendResult {
	var sb strings.Builder
	var confidenceSum float64
	lines := 0
	pages := 0

	for _, block := range blocks {
		switch block.Kind {
		case BlockPage:
			pages++
		case BlockLine:
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(block.Text)
			confidenceSum += block.Confidence
			lines++
		}
	}

	confidence := 0.0
	if lines > 0 {
		confidence = confidenceSum / float64(lines) / 100.0
	}
	if pages == 0 && lines > 0 {
		pages = 1
	}

	text := sb.String()
	return &BackendResult{
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		PageCount:  pages,
		Confidence: confidence,
	}
}

// uploadKey builds a collision-free object key for a temporary upload.
func uploadKey(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	return fmt.Sprintf("uploads/%s/%s", uuid.NewString(), base)
}
