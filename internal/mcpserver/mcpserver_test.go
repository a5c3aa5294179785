package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/termsearch/internal/app"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := app.Defaults()
	cfg.DBPath = filepath.Join(dir, "ts.db")
	cfg.CacheDir = ""
	cfg.Segmenter = "rules"
	cfg.NoAISummary = true
	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	s, err := New(a)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestHandleSearchText(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("finds every page with the term", func(t *testing.T) {
		_, out, err := s.handleSearchText(ctx, nil, SearchTextInput{
			Term: "Café",
			Pages: []PageText{
				{Page: 1, Text: "We met at the cafe. It was late."},
				{Page: 2, Text: "Nothing here."},
				{Page: 3, Text: "The CAFÉ closed early."},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, out.Pages)
		assert.Equal(t, 2, out.Count)
		assert.Equal(t, "We met at the cafe. It was late.", out.Matches[0].Excerpt)
		assert.Equal(t, 3, out.Matches[1].Page)
	})

	t.Run("missing page numbers count from one", func(t *testing.T) {
		_, out, err := s.handleSearchText(ctx, nil, SearchTextInput{
			Term:  "alpha",
			Pages: []PageText{{Text: "beta"}, {Text: "alpha"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{2}, out.Pages)
	})

	t.Run("duplicate page is rejected", func(t *testing.T) {
		_, _, err := s.handleSearchText(ctx, nil, SearchTextInput{
			Term:  "x",
			Pages: []PageText{{Page: 1, Text: "x"}, {Page: 1, Text: "x"}},
		})
		assert.Error(t, err)
	})

	t.Run("empty term matches nothing", func(t *testing.T) {
		_, out, err := s.handleSearchText(ctx, nil, SearchTextInput{
			Term:  "  ",
			Pages: []PageText{{Page: 1, Text: "anything"}},
		})
		require.NoError(t, err)
		assert.Empty(t, out.Matches)
		assert.Empty(t, out.Pages)
	})
}

func TestHandleAnalyzeFilesAndRecent(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	p := filepath.Join(t.TempDir(), "memo.txt")
	require.NoError(t, os.WriteFile(p, []byte("The budget was approved. Travel is frozen."), 0o600))

	_, rep, err := s.handleAnalyzeFiles(ctx, nil, AnalyzeFilesInput{Paths: []string{p}, Terms: []string{"budget"}})
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "memo.txt", rep.Findings[0].Document)
	assert.Equal(t, "The budget was approved. Travel is frozen.", rep.Findings[0].Excerpt)

	_, recent, err := s.handleRecentResults(ctx, nil, RecentResultsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, recent.Count)
	assert.Equal(t, rep.RunID, recent.Results[0].RunID)

	_, _, err = s.handleAnalyzeFiles(ctx, nil, AnalyzeFilesInput{Paths: []string{filepath.Join(t.TempDir(), "missing.txt")}, Terms: []string{"x"}})
	assert.Error(t, err)

	_, _, err = s.handleAnalyzeFiles(ctx, nil, AnalyzeFilesInput{Paths: []string{p}})
	assert.ErrorIs(t, err, app.ErrNoTerms)
}
