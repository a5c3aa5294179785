// Package extract turns uploaded documents into page-indexed text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Pages maps a zero-based page index to the cleaned text of that page.
// Formats without real pages (Word, plain text, HTML) are cut into virtual
// pages of roughly PageChars characters.
type Pages map[int]string

// PageChars is the size of a virtual page.
const PageChars = 3000

// ErrUnsupportedFormat is returned by ForPath for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor reads one document format.
type Extractor interface {
	Extract(ctx context.Context, path string) (Pages, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (Pages, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (Pages, error) {
	return f(ctx, path)
}

// Format names the document format behind an extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf"
	case ".docx", ".doc":
		return "word"
	case ".txt":
		return "text"
	case ".html", ".htm":
		return "html"
	}
	return ""
}

// ForPath picks the extractor for path based on its extension.
func ForPath(path string) (Extractor, error) {
	switch Format(path) {
	case "pdf":
		return PDFExtractor{}, nil
	case "word":
		return WordExtractor{}, nil
	case "text":
		return TextExtractor{}, nil
	case "html":
		return HTMLExtractor{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, strings.ToLower(filepath.Ext(path)))
}

// File extracts path with the extractor matching its extension.
func File(ctx context.Context, path string) (Pages, error) {
	ex, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	pages, err := ex.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", Format(path), err)
	}
	return pages, nil
}

// SupportedExtensions lists the extensions ForPath accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".doc", ".txt", ".html", ".htm"}
}
