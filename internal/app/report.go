package app

import (
	"strings"
	"time"

	"github.com/hyperifyio/termsearch/internal/export"
	"github.com/hyperifyio/termsearch/internal/store"
)

// Overview sources.
const (
	OverviewAI         = "ai"
	OverviewExtractive = "extractive"
)

// Finding is one excerpt produced by a run.
type Finding struct {
	Document string `json:"document"`
	Term     string `json:"term"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
	Summary  string `json:"summary"`
}

// Report is the outcome of Analyze.
type Report struct {
	RunID          string            `json:"run_id"`
	Generated      time.Time         `json:"generated"`
	Terms          []string          `json:"terms"`
	Findings       []Finding         `json:"findings"`
	Failures       map[string]string `json:"failures,omitempty"`
	Overview       string            `json:"overview,omitempty"`
	OverviewSource string            `json:"overview_source,omitempty"`
	OverviewNotice string            `json:"overview_notice,omitempty"`
}

// TermGroup holds the findings for one term.
type TermGroup struct {
	Term     string    `json:"term"`
	Findings []Finding `json:"findings"`
}

// ByTerm groups findings per term in the order of r.Terms. Terms without
// findings are left out.
func (r Report) ByTerm() []TermGroup {
	idx := map[string]int{}
	var groups []TermGroup
	for _, term := range r.Terms {
		if _, seen := idx[term]; seen {
			continue
		}
		idx[term] = len(groups)
		groups = append(groups, TermGroup{Term: term})
	}
	for _, f := range r.Findings {
		if i, ok := idx[f.Term]; ok {
			groups[i].Findings = append(groups[i].Findings, f)
		}
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g.Findings) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// HasMatches reports whether any term matched.
func (r Report) HasMatches() bool { return len(r.Findings) > 0 }

// Rows converts findings to export rows.
func (r Report) Rows() []export.Row {
	rows := make([]export.Row, 0, len(r.Findings))
	for _, f := range r.Findings {
		rows = append(rows, export.Row{Document: f.Document, Term: f.Term, Page: f.Page, Excerpt: f.Excerpt, Summary: f.Summary})
	}
	return rows
}

// Markdown renders the report for terminals and as the source of PDF output.
func (r Report) Markdown() string {
	return export.Markdown(export.Report{
		RunID:     r.RunID,
		Generated: r.Generated,
		Terms:     r.Terms,
		Overview:  r.Overview,
		Notice:    r.OverviewNotice,
		Rows:      r.Rows(),
		Failures:  r.Failures,
	})
}

// StoredRows converts stored results to export rows.
func StoredRows(results []store.Result) []export.Row {
	rows := make([]export.Row, 0, len(results))
	for _, res := range results {
		rows = append(rows, export.Row{Document: res.Filename, Term: res.Term, Page: res.Page, Excerpt: res.Excerpt, Summary: res.Summary})
	}
	return rows
}

// ParseTerms splits input into one term per line, trimming whitespace and
// dropping blank lines and repeats.
func ParseTerms(input string) []string {
	return cleanTerms(strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n"))
}

func cleanTerms(terms []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
