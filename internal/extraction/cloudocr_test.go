package extraction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore records puts and deletes in memory.
type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deletes   []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(_ context.Context, bucket, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *fakeObjectStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, bucket+"/"+key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *fakeObjectStore) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// fakeOCRClient returns canned blocks or an error.
type fakeOCRClient struct {
	blocks []LineBlock
	err    error
}

func (c *fakeOCRClient) DetectText(_ context.Context, _ ObjectRef) ([]LineBlock, error) {
	return c.blocks, c.err
}

func TestCloudOCRExtractorRun(t *testing.T) {
	store := newFakeObjectStore()
	client := &fakeOCRClient{blocks: []LineBlock{
		{Kind: BlockPage},
		{Kind: BlockLine, Text: "Invoice #4521", Confidence: 98},
		{Kind: BlockLine, Text: "Total due: $1,200.00", Confidence: 94},
		{Kind: BlockPage},
		{Kind: BlockLine, Text: "Thank you for your business", Confidence: 96},
	}}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "invoice.pdf"}

	result, err := extractor.Run(context.Background(), buf, "invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Invoice #4521\nTotal due: $1,200.00\nThank you for your business", result.Text)
	assert.Equal(t, 2, result.PageCount)
	assert.InDelta(t, 0.96, result.Confidence, 0.001)
	assert.Equal(t, 10, result.WordCount)

	// The temporary upload must be gone.
	assert.Equal(t, 0, store.remaining())
	require.Len(t, store.deletes, 1)
	assert.True(t, strings.HasPrefix(store.deletes[0], "uploads/uploads/"))
}

func TestCloudOCRExtractorDeletesOnDetectFailure(t *testing.T) {
	store := newFakeObjectStore()
	client := &fakeOCRClient{err: errors.New("service exploded")}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "doc.pdf"}

	_, err := extractor.Run(context.Background(), buf, "doc.pdf")
	require.Error(t, err)

	assert.Equal(t, 0, store.remaining(), "upload must be deleted on failure")
	assert.Len(t, store.deletes, 1)
}

func TestCloudOCRExtractorDeleteFailureNotEscalated(t *testing.T) {
	store := newFakeObjectStore()
	store.deleteErr = errors.New("store unavailable")
	client := &fakeOCRClient{blocks: []LineBlock{
		{Kind: BlockLine, Text: "some detected text", Confidence: 90},
	}}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "doc.pdf"}

	result, err := extractor.Run(context.Background(), buf, "doc.pdf")
	require.NoError(t, err, "a failed cleanup must not fail the extraction")
	assert.Equal(t, "some detected text", result.Text)
}

func TestCloudOCRExtractorUntypedErrorIsTransient(t *testing.T) {
	store := newFakeObjectStore()
	client := &fakeOCRClient{err: errors.New("connection reset by peer")}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "doc.pdf"}

	_, err := extractor.Run(context.Background(), buf, "doc.pdf")
	require.Error(t, err)
	assert.True(t, IsTransient(err), "untyped client errors should be retried")
}

func TestCloudOCRExtractorTypedErrorPassesThrough(t *testing.T) {
	store := newFakeObjectStore()
	client := &fakeOCRClient{err: NewPermanentError(MethodCloudOCR, "detect_text", errors.New("unsupported document"))}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "doc.pdf"}

	_, err := extractor.Run(context.Background(), buf, "doc.pdf")
	require.Error(t, err)
	assert.False(t, IsTransient(err), "typed permanent errors must not be reclassified")
}

func TestCloudOCRExtractorEmptyDetectionIsPermanent(t *testing.T) {
	store := newFakeObjectStore()
	client := &fakeOCRClient{blocks: []LineBlock{{Kind: BlockPage}}}

	extractor := NewCloudOCRExtractor(store, client, "uploads", nil)
	buf := &DocumentBuffer{Data: []byte("%PDF-1.7"), Filename: "photo.pdf"}

	_, err := extractor.Run(context.Background(), buf, "photo.pdf")
	require.Error(t, err)
	assert.False(t, IsTransient(err), "an empty detection will not improve on retry")
}

func TestAggregateBlocksDefaults(t *testing.T) {
	// Lines without page delimiters imply a single page.
	result := aggregateBlocks([]LineBlock{
		{Kind: BlockLine, Text: "only line", Confidence: 80},
	})

	assert.Equal(t, 1, result.PageCount)
	assert.InDelta(t, 0.80, result.Confidence, 0.001)
}

func TestUploadKeyUniqueness(t *testing.T) {
	a := uploadKey("doc.pdf")
	b := uploadKey("doc.pdf")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "/doc.pdf"))

	assert.True(t, strings.HasSuffix(uploadKey(""), "/document"))
}
