package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoDocumentBody is returned for Word archives without word/document.xml.
var ErrNoDocumentBody = errors.New("word/document.xml not found")

// WordExtractor reads .docx files. Word has no stable page boundaries, so
// paragraphs are grouped into virtual pages: a page is closed once its
// paragraphs reach PageChars characters.
type WordExtractor struct{}

// Extract implements Extractor.
func (WordExtractor) Extract(ctx context.Context, path string) (Pages, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer zr.Close()

	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if body == nil {
		return nil, ErrNoDocumentBody
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paragraphs, err := parseParagraphs(body)
	if err != nil {
		return nil, err
	}
	return groupParagraphs(paragraphs, PageChars), nil
}

type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func parseParagraphs(content []byte) ([]string, error) {
	var doc wordDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}
	out := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		out = append(out, b.String())
	}
	return out, nil
}

func groupParagraphs(paragraphs []string, size int) Pages {
	pages := Pages{}
	var current []string
	length := 0
	for _, para := range paragraphs {
		text := CleanText(para)
		if text == "" {
			continue
		}
		current = append(current, text)
		length += len([]rune(text))
		if length >= size {
			pages[len(pages)] = strings.Join(current, "\n")
			current, length = nil, 0
		}
	}
	if len(current) > 0 {
		pages[len(pages)] = strings.Join(current, "\n")
	}
	return pages
}
