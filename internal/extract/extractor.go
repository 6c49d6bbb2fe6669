// Package extract turns uploaded documents into plain text for moderation.
package extract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrUnsupportedType is returned for an extension the extractor does not accept.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("document too large")
	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("document contains no text")
)

// Content types sent to the moderation backend.
const (
	ContentTypeText     = "text"
	ContentTypeDocument = "document_text"
)

// Extractor extracts plain text from uploaded files whose extension is in
// its allow list.
type Extractor struct {
	allowed  map[string]bool
	maxBytes int64
}

// NewExtractor accepts the given extensions (with or without the leading dot).
// maxBytes <= 0 disables the size limit.
func NewExtractor(extensions []string, maxBytes int64) *Extractor {
	e := &Extractor{allowed: make(map[string]bool, len(extensions)), maxBytes: maxBytes}
	for _, ext := range extensions {
		e.allowed[normalizeExt(ext)] = true
	}
	return e
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Supports reports whether filename has an accepted extension.
func (e *Extractor) Supports(filename string) bool {
	return e.allowed[normalizeExt(filepath.Ext(filename))]
}

// ContentType is the backend content_type for a document named filename.
func ContentType(filename string) string {
	switch normalizeExt(filepath.Ext(filename)) {
	case ".txt", ".md", "":
		return ContentTypeText
	default:
		return ContentTypeDocument
	}
}

// Extract reads r and returns the text of the document named filename.
func (e *Extractor) Extract(r io.Reader, filename string) (string, error) {
	if !e.Supports(filename) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(filename))
	}
	if e.maxBytes > 0 {
		r = io.LimitReader(r, e.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if e.maxBytes > 0 && int64(len(content)) > e.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, e.maxBytes)
	}
	return ExtractBytes(content, filepath.Ext(filename))
}

// ExtractBytes extracts text from content based on ext (e.g. ".pdf"). The
// result is NFC-normalized with LF line endings and surrounding space trimmed.
func ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch normalizeExt(ext) {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	case ".rtf", ".odt":
		text, err = extractWithCat(content)
	case ".txt", ".md", "":
		text, err = extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err != nil {
		return "", err
	}
	text = normalizeText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(s))
}
