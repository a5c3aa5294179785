package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/termsearch/internal/app"
	"github.com/hyperifyio/termsearch/internal/store"
)

// clearEnv keeps the developer's environment from leaking into a run.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "TERMSEARCH_DB", "CACHE_DIR", "SEGMENTER", "CONTEXT_WINDOW", "SUMMARY_MAX_LENGTH", "NO_AI_SUMMARY", "VERBOSE"} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func baseArgs(dir string) []string {
	return []string{
		"--env", filepath.Join(dir, "missing.env"),
		"--db", filepath.Join(dir, "ts.db"),
		"--cache.dir", filepath.Join(dir, "cache"),
		"--segmenter", "rules",
		"--no-ai",
	}
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestAnalyze_MarkdownAndExports(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "lease.txt", "The tenant pays rent monthly. The deposit is returned at the end.")
	xlsx := filepath.Join(dir, "out.xlsx")
	pdf := filepath.Join(dir, "out.pdf")

	args := append(baseArgs(dir), "analyze", doc, "--terms", "rent,deposit", "--xlsx", xlsx, "--pdf", pdf)
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, want := range []string{"## Results for: rent", "## Results for: deposit", "### Page 1 - lease.txt", "AI summary disabled"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	for _, p := range []string{xlsx, pdf} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Fatalf("expected %s to be written, err=%v", p, err)
		}
	}
}

func TestAnalyze_NoMatchesIsDistinctError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "notes.txt", "Nothing relevant here.")
	args := append(baseArgs(dir), "analyze", doc, "-t", "zebra")
	out, err := execute(t, args...)
	if !errors.Is(err, app.ErrNoMatches) {
		t.Fatalf("expected ErrNoMatches, got %v", err)
	}
	if !strings.Contains(out, "No matches found") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestAnalyze_TermsFileAndJSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "memo.txt", "Budget review on Friday. Résumé deadline is Monday.")
	terms := writeDoc(t, dir, "terms.txt", "resume\n\nbudget\n")
	args := append(baseArgs(dir), "analyze", doc, "--terms-file", terms, "--json")
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var rep app.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rep.Terms) != 2 || rep.Terms[0] != "resume" {
		t.Fatalf("terms=%v", rep.Terms)
	}
	if len(rep.Findings) != 2 {
		t.Fatalf("findings=%d", len(rep.Findings))
	}
}

func TestAnalyze_RequiresTerms(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "a.txt", "text")
	if _, err := execute(t, append(baseArgs(dir), "analyze", doc)...); !errors.Is(err, app.ErrNoTerms) {
		t.Fatalf("expected ErrNoTerms, got %v", err)
	}
}

func TestHistoryAndExport(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "a.txt", "Invoices are paid in thirty days.")
	if _, err := execute(t, append(baseArgs(dir), "analyze", doc, "-t", "invoices")...); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	out, err := execute(t, append(baseArgs(dir), "history", "--json")...)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var results []store.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Filename != "a.txt" {
		t.Fatalf("unexpected history: %+v", results)
	}

	xlsx := filepath.Join(dir, "run.xlsx")
	out, err = execute(t, append(baseArgs(dir), "export", results[0].RunID, "-o", xlsx)...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "1 results written") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := execute(t, append(baseArgs(dir), "export", "missing-run", "-o", xlsx)...); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummarize_ExtractiveWithoutModel(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "text.txt", "Solar output rose sharply. Solar panels were installed in spring. Output doubled.")
	out, err := execute(t, append(baseArgs(dir), "summarize", doc)...)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(out, "Solar") {
		t.Fatalf("unexpected summary: %q", out)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgFile := writeDoc(t, dir, "termsearch.yaml", "db: from-file.db\nsearch:\n  window: 80\n  segmenter: none\n")
	t.Setenv("CONTEXT_WINDOW", "120")

	c := &cli{flags: app.Defaults(), configPath: cfgFile, envFiles: []string{filepath.Join(dir, "missing.env")}}
	cmd := newRootCmd(&bytes.Buffer{})
	if err := cmd.ParseFlags([]string{"--segmenter", "rules"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	c.flags.Segmenter = "rules"
	if err := c.loadConfig(cmd); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.cfg.DBPath != "from-file.db" {
		t.Fatalf("db=%q want file value", c.cfg.DBPath)
	}
	if c.cfg.ContextWindow != 120 {
		t.Fatalf("window=%d want env value", c.cfg.ContextWindow)
	}
	if c.cfg.Segmenter != "rules" {
		t.Fatalf("segmenter=%q want flag value", c.cfg.Segmenter)
	}
}
