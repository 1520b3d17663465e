package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/inkwell-ai/docsense/internal/extraction"
)

// Store is an HTTP object-store client used for the OCR service's
// temporary uploads.
type Store struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewStore creates an object-store client against the given base URL.
func NewStore(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Store{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Put uploads an object.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte) error {
	return s.do(ctx, http.MethodPut, bucket, key, bytes.NewReader(data))
}

// Delete removes an object. Missing objects are not an error; the caller
// only cares that nothing is left behind.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	err := s.do(ctx, http.MethodDelete, bucket, key, nil)
	if errors.Is(err, errObjectNotFound) {
		return nil
	}
	return err
}

// errObjectNotFound marks a 404 from the object store.
var errObjectNotFound = errors.New("object not found")

func (s *Store) do(ctx context.Context, method, bucket, key string, body io.Reader) error {
	target := fmt.Sprintf("%s/%s/%s", s.endpoint, url.PathEscape(bucket), escapeKey(key))
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return extraction.NewPermanentError(extraction.MethodCloudOCR, "store_request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return extraction.NewTransientError(extraction.MethodCloudOCR, "store_"+method, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return extraction.NewPermanentError(extraction.MethodCloudOCR, "store_"+method, errObjectNotFound)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return extraction.NewTransientError(extraction.MethodCloudOCR, "store_"+method,
			fmt.Errorf("object store returned %d", resp.StatusCode))
	}
	return extraction.NewPermanentError(extraction.MethodCloudOCR, "store_"+method,
		fmt.Errorf("object store returned %d", resp.StatusCode))
}

// escapeKey escapes an object key while keeping its path separators.
func escapeKey(key string) string {
	return (&url.URL{Path: key}).EscapedPath()
}
