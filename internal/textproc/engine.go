package textproc

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultWindow is the number of characters kept on each side of a match.
	DefaultWindow = 200
	// DefaultSummaryLength caps the excerpt preview produced by Summarize.
	DefaultSummaryLength = 150
)

// Engine bundles the segmenter and window size used for context extraction.
// An Engine is immutable once built and safe for concurrent use.
type Engine struct {
	seg        Segmenter
	window     int
	summaryLen int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSegmenter sets the sentence segmenter. A nil segmenter disables
// segmentation, so every span is treated as one sentence.
func WithSegmenter(s Segmenter) Option {
	return func(e *Engine) { e.seg = s }
}

// WithWindow sets the context window. Non-positive values keep the default.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithSummaryLength sets the preview length used by Matches. Non-positive
// values keep DefaultSummaryLength.
func WithSummaryLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.summaryLen = n
		}
	}
}

// New builds an Engine. Without options it uses a lazily loaded Punkt
// segmenter and DefaultWindow.
func New(opts ...Option) *Engine {
	e := &Engine{seg: NewPunktSegmenter(), window: DefaultWindow, summaryLen: DefaultSummaryLength}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the configured context window.
func (e *Engine) Window() int { return e.window }

// Result maps a zero-based page index to the excerpts found on that page, in
// order of occurrence. Pages without excerpts are absent.
type Result map[int][]string

// Pages returns the page indices of r in ascending order.
func (r Result) Pages() []int {
	pages := make([]int, 0, len(r))
	for p := range r {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Count returns the total number of excerpts across all pages.
func (r Result) Count() int {
	n := 0
	for _, ex := range r {
		n += len(ex)
	}
	return n
}

// Match is one excerpt ready for storage or display. Page is one-based.
type Match struct {
	Term    string `json:"term"`
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
	Summary string `json:"summary"`
}

// ExtractContext returns the context around the first occurrence of term in
// pageText. The boolean is false when the term does not occur.
func (e *Engine) ExtractContext(pageText, term string) (string, bool) {
	normTerm := Normalize(term)
	if normTerm == "" {
		return "", false
	}
	normText := Normalize(pageText)
	pos := strings.Index(normText, normTerm)
	if pos < 0 {
		return "", false
	}
	return e.ExtractContextAt(pageText, term, utf8.RuneCountInString(normText[:pos])), true
}

// ExtractContextAt cuts the window around an occurrence found at rune offset
// normPos in the normalized page text. The offset is applied to the original text as is;
// normalization is not length preserving, so the window is approximate.
func (e *Engine) ExtractContextAt(pageText, term string, normPos int) string {
	text := []rune(pageText)
	start := normPos - e.window
	if start < 0 {
		start = 0
	}
	if start > len(text) {
		start = len(text)
	}
	end := normPos + len([]rune(term)) + e.window
	if end > len(text) {
		end = len(text)
	}
	if end < start {
		end = start
	}
	span := string(text[start:end])

	sentences := segmentOrWhole(e.seg, span)
	if len(sentences) > 1 {
		return strings.Join(sentences, " ")
	}
	return span
}

// Search finds every occurrence of term on every page and returns one context
// per occurrence. Pages are visited in ascending index order.
func (e *Engine) Search(pages map[int]string, term string) Result {
	out := Result{}
	normTerm := Normalize(term)
	if normTerm == "" {
		return out
	}

	indices := make([]int, 0, len(pages))
	for p := range pages {
		indices = append(indices, p)
	}
	sort.Ints(indices)

	for _, p := range indices {
		pageText := pages[p]
		normText := Normalize(pageText)
		if !strings.Contains(normText, normTerm) {
			continue
		}
		var contexts []string
		for _, pos := range occurrences(normText, normTerm) {
			if ctx := e.ExtractContextAt(pageText, term, utf8.RuneCountInString(normText[:pos])); ctx != "" {
				contexts = append(contexts, ctx)
			}
		}
		if len(contexts) > 0 {
			out[p] = contexts
		}
	}
	return out
}

// Matches runs Search and flattens the result into records with one-based
// page numbers and an excerpt preview.
func (e *Engine) Matches(pages map[int]string, term string) []Match {
	res := e.Search(pages, term)
	out := make([]Match, 0, res.Count())
	for _, p := range res.Pages() {
		for _, ex := range res[p] {
			out = append(out, Match{
				Term:    term,
				Page:    p + 1,
				Excerpt: ex,
				Summary: e.Summarize(ex, e.summaryLen),
			})
		}
	}
	return out
}

// Summarize returns the first sentence of context, cut to maxLength runes with
// a trailing "..." when longer. A non-positive maxLength uses
// DefaultSummaryLength.
func (e *Engine) Summarize(context string, maxLength int) string {
	if context == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultSummaryLength
	}
	sentences := segmentOrWhole(e.seg, context)
	if len(sentences) == 0 {
		return ""
	}
	first := []rune(sentences[0])
	if len(first) > maxLength {
		return string(first[:maxLength]) + "..."
	}
	return sentences[0]
}

// occurrences returns the start byte offsets of every non-overlapping match of
// needle in haystack, scanning left to right.
func occurrences(haystack, needle string) []int {
	var out []int
	for from := 0; from <= len(haystack)-len(needle); {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			break
		}
		out = append(out, from+i)
		from += i + len(needle)
	}
	return out
}
