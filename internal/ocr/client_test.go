package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/docsense/internal/extraction"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig(server.URL, "test-key")
	config.RequestsPerSecond = 1000 // keep tests fast
	return NewClient(config, nil), server
}

func TestClientDetectText(t *testing.T) {
	var gotAuth, gotPath string
	var gotRequest detectTextRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocks":[
			{"kind":"page"},
			{"kind":"line","text":"Detected line one","confidence":97.5},
			{"kind":"line","text":"Detected line two","confidence":92.0}
		]}`))
	})

	blocks, err := client.DetectText(context.Background(), extraction.ObjectRef{
		Bucket: "uploads",
		Key:    "uploads/abc/doc.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/v1/detect-text", gotPath)
	assert.Equal(t, "uploads", gotRequest.Bucket)
	assert.Equal(t, "uploads/abc/doc.pdf", gotRequest.Key)

	require.Len(t, blocks, 3)
	assert.Equal(t, extraction.BlockPage, blocks[0].Kind)
	assert.Equal(t, "Detected line one", blocks[1].Text)
	assert.InDelta(t, 97.5, blocks[1].Confidence, 0.001)
}

func TestClientRateLimitIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.DetectText(context.Background(), extraction.ObjectRef{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.True(t, extraction.IsTransient(err))
}

func TestClientServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.DetectText(context.Background(), extraction.ObjectRef{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.True(t, extraction.IsTransient(err))
}

func TestClientBadRequestIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unsupported media", http.StatusBadRequest)
	})

	_, err := client.DetectText(context.Background(), extraction.ObjectRef{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.False(t, extraction.IsTransient(err))
	assert.Contains(t, err.Error(), "400")
}

func TestClientMalformedResponseIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	})

	_, err := client.DetectText(context.Background(), extraction.ObjectRef{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.False(t, extraction.IsTransient(err))
}

func TestClientCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DetectText(ctx, extraction.ObjectRef{Bucket: "b", Key: "k"})
	require.Error(t, err)
}
