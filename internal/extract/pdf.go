package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// PDFExtractor returns one entry per PDF page.
type PDFExtractor struct{}

// Extract implements Extractor. A page whose text cannot be decoded is kept
// as an empty page so page numbers stay aligned with the document.
func (PDFExtractor) Extract(ctx context.Context, path string) (pages Pages, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	// the reader panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("read %s: %v", path, rec)
		}
	}()

	pages = Pages{}
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages[i-1] = ""
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Int("page", i).Msg("pdf page text failed")
			pages[i-1] = ""
			continue
		}
		pages[i-1] = CleanText(text)
	}
	return pages, nil
}
