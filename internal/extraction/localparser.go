package extraction

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"github.com/inkwell-ai/docsense/internal/pdfinspect"
)

// DefaultParser is the in-process parse capability. It dispatches on the
// declared MIME type and filename extension: PDF via pdfinspect, Markdown
// via goldmark, HTML via x/net/html, CSV via encoding/csv, and raw text
// for everything else.
type DefaultParser struct{}

// NewDefaultParser creates the standard local parser.
func NewDefaultParser() *DefaultParser {
	return &DefaultParser{}
}

// Parse extracts plain text and document metadata from a buffer. It
// returns ErrEncryptedDocument for password-protected PDFs.
func (p *DefaultParser) Parse(buf *DocumentBuffer) (*ParseResult, error) {
	if buf.Empty() {
		return nil, ErrInvalidBuffer
	}

	switch p.format(buf) {
	case "pdf":
		return p.parsePDF(buf.Data)
	case "markdown":
		text, err := markdownToText(buf.Data)
		if err != nil {
			return nil, fmt.Errorf("markdown parse: %w", err)
		}
		return &ParseResult{Text: text, PageCount: 1}, nil
	case "html":
		text, err := htmlToText(buf.Data)
		if err != nil {
			return nil, fmt.Errorf("html parse: %w", err)
		}
		return &ParseResult{Text: text, PageCount: 1}, nil
	case "csv":
		text, err := csvToText(buf.Data)
		if err != nil {
			return nil, fmt.Errorf("csv parse: %w", err)
		}
		return &ParseResult{Text: text, PageCount: 1}, nil
	default:
		return &ParseResult{Text: string(buf.Data), PageCount: 1}, nil
	}
}

// format resolves the parse strategy from the declared MIME type, falling
// back to the filename extension and a content sniff.
func (p *DefaultParser) format(buf *DocumentBuffer) string {
	mime := strings.ToLower(buf.MIMEType)
	switch {
	case strings.Contains(mime, "pdf"):
		return "pdf"
	case strings.Contains(mime, "markdown"):
		return "markdown"
	case strings.Contains(mime, "html"):
		return "html"
	case strings.Contains(mime, "csv"):
		return "csv"
	}

	switch strings.ToLower(filepath.Ext(buf.Filename)) {
	case ".pdf":
		return "pdf"
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	case ".csv":
		return "csv"
	}

	if pdfinspect.IsPDF(buf.Data) {
		return "pdf"
	}
	return "text"
}

func (p *DefaultParser) parsePDF(data []byte) (*ParseResult, error) {
	result, err := pdfinspect.Parse(data)
	if err != nil {
		if errors.Is(err, pdfinspect.ErrEncrypted) {
			parsed := &ParseResult{Encrypted: true}
			if result != nil {
				parsed.PageCount = result.PageCount
			}
			return parsed, ErrEncryptedDocument
		}
		return nil, err
	}
	return &ParseResult{
		Text:      result.Text,
		PageCount: result.PageCount,
		Producer:  result.Producer,
		Creator:   result.Creator,
		Encrypted: result.Encrypted,
	}, nil
}

// markdownToText flattens a Markdown document into plain text by walking
// the goldmark AST.
func markdownToText(src []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var sb strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		t := strings.TrimSpace(markdownNodeText(n, src))
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
	}
	return sb.String(), nil
}

// markdownNodeText gets the text content of a goldmark AST node.
func markdownNodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		if buf.Len() > 0 {
			return buf.String()
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(markdownNodeText(c, src))
			if c.Type() == ast.TypeBlock {
				buf.WriteString("\n")
			}
		}
	}
	return buf.String()
}

// htmlToText flattens an HTML document into plain text, skipping script,
// style and navigation elements.
func htmlToText(src []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav":
				return
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), nil
}

// csvToText renders CSV records as "header: value" lines so downstream
// analysis sees the column context.
func csvToText(src []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(src))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	var sb strings.Builder
	sb.WriteString(strings.Join(headers, ", "))
	sb.WriteString("\n")
	for _, row := range records[1:] {
		parts := make([]string, 0, len(row))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				parts = append(parts, headers[j]+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// LocalParserExtractor is the in-process extraction backend. Its
// confidence is a heuristic blend of text quality and the presence of
// punctuation, capitalization and plausible word lengths.
type LocalParserExtractor struct {
	parser LocalParser
}

// NewLocalParserExtractor creates the local extraction backend.
func NewLocalParserExtractor(parser LocalParser) *LocalParserExtractor {
	return &LocalParserExtractor{parser: parser}
}

// Method identifies this backend.
func (e *LocalParserExtractor) Method() Method {
	return MethodLocalParser
}

// Run parses the buffer in-process. Parse failures and empty extractions
// are permanent; the local parser has no transient failure modes.
func (e *LocalParserExtractor) Run(ctx context.Context, buf *DocumentBuffer, filename string) (*BackendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewTransientError(MethodLocalParser, "run", err)
	}

	parsed, err := e.parser.Parse(buf)
	if err != nil {
		if errors.Is(err, ErrEncryptedDocument) {
			return nil, NewPermanentError(MethodLocalParser, "parse", ErrEncryptedDocument)
		}
		return nil, NewPermanentError(MethodLocalParser, "parse", err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return nil, NewPermanentError(MethodLocalParser, "parse", fmt.Errorf("no text extracted from %s", filename))
	}

	result := &BackendResult{
		Text:       parsed.Text,
		WordCount:  len(strings.Fields(parsed.Text)),
		PageCount:  parsed.PageCount,
		Confidence: localConfidence(parsed.Text),
	}
	return result, nil
}

// Confidence heuristic weights. Additive, capped at 1.0.
const (
	weightMeaningfulWords = 0.3
	weightPunctuation     = 0.2
	weightCapitalization  = 0.2
	weightWordLength      = 0.2
	weightNotGarbled      = 0.1
)

// localConfidence scores how trustworthy an in-process extraction looks.
func localConfidence(text string) float64 {
	quality := AnalyzeQuality(text)
	fields := strings.Fields(text)

	score := 0.0
	if quality.WordlikeRatio >= 0.6 {
		score += weightMeaningfulWords
	}
	if strings.ContainsAny(text, ".,;:!?") {
		score += weightPunctuation
	}
	if strings.IndexFunc(text, unicode.IsUpper) >= 0 {
		score += weightCapitalization
	}
	if avg := averageWordLength(fields); avg >= 3.0 && avg <= 10.0 {
		score += weightWordLength
	}
	if !quality.Garbled {
		score += weightNotGarbled
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func averageWordLength(fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	total := 0
	for _, f := range fields {
		total += len([]rune(f))
	}
	return float64(total) / float64(len(fields))
}
