package textproc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rs/zerolog/log"
)

// Segmenter splits a span of text into sentences. Implementations may be
// unavailable; callers in this package then treat the whole span as a single
// sentence.
type Segmenter interface {
	Segment(text string) ([]string, error)
}

// ErrSegmenterUnavailable reports that a segmenter cannot run, for example
// because its training data failed to load.
var ErrSegmenterUnavailable = errors.New("sentence segmenter unavailable")

// PunktSegmenter uses the Punkt tokenizer with English training data. The
// training data is loaded once on first use; a load failure is remembered and
// every later call reports ErrSegmenterUnavailable.
type PunktSegmenter struct {
	once      sync.Once
	tokenizer *sentences.DefaultSentenceTokenizer
	initErr   error
}

// NewPunktSegmenter returns a segmenter that initializes lazily.
func NewPunktSegmenter() *PunktSegmenter {
	return &PunktSegmenter{}
}

// Init loads the training data now instead of on first use. It is safe to call
// from several goroutines and returns the same result every time.
func (p *PunktSegmenter) Init() error {
	p.once.Do(func() {
		tok, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			p.initErr = fmt.Errorf("%w: %v", ErrSegmenterUnavailable, err)
			log.Warn().Err(err).Msg("punkt training data failed to load; using whole-span sentences")
			return
		}
		p.tokenizer = tok
	})
	return p.initErr
}

// Segment implements Segmenter.
func (p *PunktSegmenter) Segment(text string) (out []string, err error) {
	if err := p.Init(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("punkt tokenize: %v", r)
		}
	}()
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// sentenceRe matches runs ending in sentence punctuation, optionally followed
// by closing quotes or brackets.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*`)

// RuleSegmenter splits on '.', '!' and '?' without any abbreviation model.
// Trailing text without terminal punctuation becomes its own sentence.
type RuleSegmenter struct{}

// Segment implements Segmenter.
func (RuleSegmenter) Segment(text string) ([]string, error) {
	var out []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		last = loc[1]
	}
	if t := strings.TrimSpace(text[last:]); t != "" {
		out = append(out, t)
	}
	return out, nil
}

// NopSegmenter is never available.
type NopSegmenter struct{}

// Segment implements Segmenter.
func (NopSegmenter) Segment(string) ([]string, error) {
	return nil, ErrSegmenterUnavailable
}

// NewSegmenter maps a configuration name to a Segmenter. An empty name selects
// punkt.
func NewSegmenter(name string) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "punkt":
		return NewPunktSegmenter(), nil
	case "rules":
		return RuleSegmenter{}, nil
	case "none":
		return NopSegmenter{}, nil
	default:
		return nil, fmt.Errorf("unknown segmenter %q", name)
	}
}

// segmentOrWhole runs seg on text and falls back to the whole span when the
// segmenter is missing or fails.
func segmentOrWhole(seg Segmenter, text string) []string {
	if seg == nil {
		return []string{text}
	}
	parts, err := seg.Segment(text)
	if err != nil {
		log.Debug().Err(err).Msg("segmentation failed; treating span as one sentence")
		return []string{text}
	}
	return parts
}
