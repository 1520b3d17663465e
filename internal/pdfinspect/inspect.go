// Package pdfinspect provides in-process PDF parsing for the extraction
// pipeline. It combines pdfcpu for document structure, encryption status
// and metadata with ledongthuc/pdf for plain-text extraction.
package pdfinspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrEncrypted indicates the document could not be opened without a
// password.
var ErrEncrypted = errors.New("pdf is encrypted")

var pdfHeader = []byte("%PDF-")

// Result holds the outcome of a local parse: extracted plain text, page
// count, and parser-reported document metadata.
type Result struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Producer  string `json:"producer,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// IsPDF reports whether the buffer starts with a PDF file header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfHeader)
}

// Parse extracts text, page count and metadata from a PDF buffer. It
// returns ErrEncrypted when the document requires a password. A document
// whose structure parses but yields no text returns an empty Text with a
// non-zero PageCount, which classification treats as image-based.
func Parse(data []byte) (*Result, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("buffer is not a PDF document")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		if isEncryptionError(err) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("pdfcpu page count: %w", err)
	}

	result := &Result{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}
	result.Producer, result.Creator = infoMetadata(ctx)

	if result.Encrypted {
		return result, ErrEncrypted
	}

	text, err := extractPlainText(data)
	if err != nil {
		// Structure parsed fine; surface what we know and let the
		// caller decide based on the empty text.
		return result, nil
	}
	result.Text = text

	return result, nil
}

// extractPlainText pulls document text via ledongthuc/pdf. The library is
// known to panic on malformed content streams, so the call is fenced with
// a recover.
func extractPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf text extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plain text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("pdf text read: %w", err)
	}

	return sb.String(), nil
}

// infoMetadata dereferences the document info dictionary and returns the
// Producer and Creator entries when present.
func infoMetadata(ctx *model.Context) (producer, creator string) {
	if ctx.Info == nil {
		return "", ""
	}

	dict, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || dict == nil {
		return "", ""
	}

	return stringEntry(dict, "Producer"), stringEntry(dict, "Creator")
}

// stringEntry decodes a PDF string object from an info dictionary entry.
func stringEntry(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}

	switch v := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	default:
		return ""
	}
}

// isEncryptionError matches pdfcpu failures caused by password protection.
func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
