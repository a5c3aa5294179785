package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrNotUTF8 is returned for text files that are not valid UTF-8.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// TextExtractor reads UTF-8 plain text and cuts it into virtual pages.
type TextExtractor struct{}

// Extract implements Extractor.
func (TextExtractor) Extract(_ context.Context, path string) (Pages, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(b) {
		return nil, ErrNotUTF8
	}
	return paginate(CleanText(string(b)), PageChars), nil
}
