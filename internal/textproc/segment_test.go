package textproc

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestRuleSegmenter_Splits(t *testing.T) {
	got, err := RuleSegmenter{}.Segment(`He said "stop." Then left! Why? trailing words`)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	want := []string{`He said "stop."`, "Then left!", "Why?", "trailing words"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRuleSegmenter_Empty(t *testing.T) {
	got, err := RuleSegmenter{}.Segment("   ")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no sentences, got %q err=%v", got, err)
	}
}

func TestNopSegmenter_Unavailable(t *testing.T) {
	if _, err := (NopSegmenter{}).Segment("x"); !errors.Is(err, ErrSegmenterUnavailable) {
		t.Fatalf("expected ErrSegmenterUnavailable, got %v", err)
	}
}

func TestNewSegmenter_Names(t *testing.T) {
	for name, want := range map[string]any{
		"":      &PunktSegmenter{},
		"Punkt": &PunktSegmenter{},
		"rules": RuleSegmenter{},
		"none":  NopSegmenter{},
	} {
		got, err := NewSegmenter(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if reflect.TypeOf(got) != reflect.TypeOf(want) {
			t.Fatalf("%q: got %T, want %T", name, got, want)
		}
	}
	if _, err := NewSegmenter("spacy"); err == nil {
		t.Fatalf("expected error for unknown segmenter")
	}
}

func TestSegmentOrWhole_Fallbacks(t *testing.T) {
	if got := segmentOrWhole(nil, "a. b."); !reflect.DeepEqual(got, []string{"a. b."}) {
		t.Fatalf("nil segmenter: %q", got)
	}
	if got := segmentOrWhole(NopSegmenter{}, "a. b."); !reflect.DeepEqual(got, []string{"a. b."}) {
		t.Fatalf("failing segmenter: %q", got)
	}
}

// Punkt either segments or reports itself unavailable; it never panics and
// concurrent first use initializes once.
func TestPunktSegmenter_ConcurrentInit(t *testing.T) {
	p := NewPunktSegmenter()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.Init()
		}(i)
	}
	wg.Wait()
	for _, err := range errs[1:] {
		if !errors.Is(err, errs[0]) && err != errs[0] {
			t.Fatalf("inconsistent init results: %v", errs)
		}
	}
	if errs[0] != nil {
		t.Skipf("punkt unavailable: %v", errs[0])
	}
	got, err := p.Segment("The meeting ended early. Everyone went home.")
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %q", got)
	}
}
