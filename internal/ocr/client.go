// Package ocr provides HTTP clients for the remote OCR/document-text
// service and its companion object store. Both satisfy the capability
// interfaces in internal/extraction, which keeps the pipeline testable
// with fakes.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/inkwell-ai/docsense/internal/extraction"
)

// ClientConfig configures the OCR service client.
type ClientConfig struct {
	// Endpoint is the base URL of the OCR service.
	Endpoint string `json:"endpoint"`

	// APIKey authenticates requests when non-empty.
	APIKey string `json:"api_key"`

	// RequestsPerSecond bounds the request rate against the service.
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout"`
}

// DefaultClientConfig returns sensible client defaults.
func DefaultClientConfig(endpoint, apiKey string) ClientConfig {
	return ClientConfig{
		Endpoint:          endpoint,
		APIKey:            apiKey,
		RequestsPerSecond: 5,
		Timeout:           45 * time.Second,
	}
}

// Client calls the OCR service over HTTP.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an OCR service client.
func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// detectTextRequest is the wire request for text detection.
type detectTextRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// detectTextResponse is the wire response: line and page-delimiter blocks
// in document order.
type detectTextResponse struct {
	Blocks []struct {
		Kind       string  `json:"kind"`
		Text       string  `json:"text,omitempty"`
		Confidence float64 `json:"confidence,omitempty"`
	} `json:"blocks"`
}

// DetectText invokes the remote text-detection endpoint for a stored
// object. Service errors are classified for the orchestrator: rate limits
// and 5xx responses are transient, other HTTP failures permanent.
func (c *Client) DetectText(ctx context.Context, ref extraction.ObjectRef) ([]extraction.LineBlock, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, extraction.NewTransientError(extraction.MethodCloudOCR, "rate_wait", err)
	}

	payload, err := json.Marshal(detectTextRequest{Bucket: ref.Bucket, Key: ref.Key})
	if err != nil {
		return nil, extraction.NewPermanentError(extraction.MethodCloudOCR, "encode", err)
	}

	url := c.config.Endpoint + "/v1/detect-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, extraction.NewPermanentError(extraction.MethodCloudOCR, "build_request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, extraction.NewTransientError(extraction.MethodCloudOCR, "detect_text", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, extraction.NewTransientError(extraction.MethodCloudOCR, "read_response", err)
	}

	c.logger.Debug("ocr detect-text response",
		"status", resp.StatusCode, "bytes", len(body), "elapsed_ms", time.Since(start).Milliseconds())

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var decoded detectTextResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, extraction.NewPermanentError(extraction.MethodCloudOCR, "decode", err)
	}

	blocks := make([]extraction.LineBlock, 0, len(decoded.Blocks))
	for _, b := range decoded.Blocks {
		blocks = append(blocks, extraction.LineBlock{
			Kind:       extraction.BlockKind(b.Kind),
			Text:       b.Text,
			Confidence: b.Confidence,
		})
	}
	return blocks, nil
}

// classifyStatus maps an HTTP status to the orchestrator's error taxonomy.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return extraction.NewTransientError(extraction.MethodCloudOCR, "detect_text",
			fmt.Errorf("service returned %d: %s", status, truncate(body, 200)))
	default:
		return extraction.NewPermanentError(extraction.MethodCloudOCR, "detect_text",
			fmt.Errorf("service returned %d: %s", status, truncate(body, 200)))
	}
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		body = body[:n]
	}
	return string(body)
}
