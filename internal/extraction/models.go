package extraction

// Method identifies the extraction strategy that produced a result.
type Method string

const (
	MethodCloudOCR    Method = "cloud-ocr"
	MethodLocalParser Method = "local-parser"
	MethodFallback    Method = "fallback"
)

// IsValid checks if the method is a known extraction strategy.
func (m Method) IsValid() bool {
	switch m {
	case MethodCloudOCR, MethodLocalParser, MethodFallback:
		return true
	default:
		return false
	}
}

// DocType categorizes a document based on the classification inspection pass.
type DocType string

const (
	DocTypeStandardText     DocType = "standard-text"
	DocTypeImageBased       DocType = "image-based"
	DocTypeScanned          DocType = "scanned"
	DocTypeRendererArtifact DocType = "renderer-artifact"
	DocTypeUnknown          DocType = "unknown"
)

// IsValid checks if the document type is a known classification.
func (dt DocType) IsValid() bool {
	switch dt {
	case DocTypeStandardText, DocTypeImageBased, DocTypeScanned,
		DocTypeRendererArtifact, DocTypeUnknown:
		return true
	default:
		return false
	}
}

// DocumentBuffer carries the raw bytes of an uploaded document together
// with caller-declared metadata. The pipeline treats the byte slice as
// immutable and never retains it after an extraction call returns.
type DocumentBuffer struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	Filename string `json:"filename"`
}

// Empty reports whether the buffer holds no data.
func (b *DocumentBuffer) Empty() bool {
	return b == nil || len(b.Data) == 0
}

// DocumentAnalysis is the result of document-type classification. It is
// created once per extraction call and immutable after creation.
type DocumentAnalysis struct {
	Type               DocType `json:"type"`
	Confidence         int     `json:"confidence"` // 0 to 100
	Reason             string  `json:"reason"`
	RecommendedBackend Method  `json:"recommended_backend"`

	// Encrypted is set when the inspection pass detects document
	// encryption; the orchestrator short-circuits to fallback.
	Encrypted bool `json:"encrypted,omitempty"`
}

// ExtractionResult is the terminal output of the extraction orchestrator.
// Extraction never raises to the caller; every failure mode resolves into
// a result with Method == MethodFallback and populated Errors.
type ExtractionResult struct {
	Text             string   `json:"text"`
	WordCount        int      `json:"word_count"`
	PageCount        int      `json:"page_count"`
	Confidence       float64  `json:"confidence"` // 0.0 to 1.0
	Method           Method   `json:"method"`
	CostEstimate     float64  `json:"cost_estimate"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Warnings         []string `json:"warnings,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// BackendResult is the raw output of a single extraction backend before
// the orchestrator attaches cost, timing and quality metadata.
type BackendResult struct {
	Text       string   `json:"text"`
	WordCount  int      `json:"word_count"`
	PageCount  int      `json:"page_count"`
	Confidence float64  `json:"confidence"` // 0.0 to 1.0
	Warnings   []string `json:"warnings,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}
