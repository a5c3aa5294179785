package export

import (
	"fmt"
	"strings"
	"time"
)

// Report is the input for Markdown and PDF rendering.
type Report struct {
	Title     string
	RunID     string
	Generated time.Time
	Terms     []string
	Overview  string
	// Notice explains why the overview is not AI generated, when it is not.
	Notice   string
	Rows     []Row
	Failures map[string]string
}

// Markdown renders r grouped by search term in the order of r.Terms.
func Markdown(r Report) string {
	var sb strings.Builder
	title := r.Title
	if title == "" {
		title = "Document Search Results"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if r.RunID != "" {
		fmt.Fprintf(&sb, "Run: %s\n", r.RunID)
	}
	if !r.Generated.IsZero() {
		fmt.Fprintf(&sb, "Generated: %s\n", r.Generated.UTC().Format(time.RFC3339))
	}
	sb.WriteString("\n")

	if r.Overview != "" {
		sb.WriteString("## Overview\n\n")
		sb.WriteString(r.Overview)
		sb.WriteString("\n\n")
		if r.Notice != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", r.Notice)
		}
	}

	byTerm := map[string][]Row{}
	for _, row := range r.Rows {
		byTerm[row.Term] = append(byTerm[row.Term], row)
	}
	found := false
	for _, term := range r.Terms {
		rows := byTerm[term]
		if len(rows) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(&sb, "## Results for: %s\n\n", term)
		for _, row := range rows {
			fmt.Fprintf(&sb, "### Page %d - %s\n\n", row.Page, row.Document)
			fmt.Fprintf(&sb, "**Excerpt:** %s\n\n", row.Excerpt)
			if row.Summary != "" {
				fmt.Fprintf(&sb, "**Context Summary:** %s\n\n", row.Summary)
			}
		}
	}
	if !found {
		sb.WriteString("No matches found for the provided search terms.\n\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("## Skipped files\n\n")
		for _, name := range sortedKeys(r.Failures) {
			fmt.Fprintf(&sb, "- %s: %s\n", name, r.Failures[name])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
