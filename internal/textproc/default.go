package textproc

import "sync"

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the shared Engine built with New().
func Default() *Engine {
	defaultOnce.Do(func() { defaultEngine = New() })
	return defaultEngine
}

// Search runs Default().Search.
func Search(pages map[int]string, term string) Result {
	return Default().Search(pages, term)
}

// ExtractContext runs ExtractContext with the default segmenter and the given
// window size.
func ExtractContext(pageText, term string, window int) (string, bool) {
	e := Default()
	if window > 0 && window != e.window {
		e = &Engine{seg: e.seg, window: window}
	}
	return e.ExtractContext(pageText, term)
}

// Summarize runs Default().Summarize.
func Summarize(context string, maxLength int) string {
	return Default().Summarize(context, maxLength)
}
