package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "termsearch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termsearch.db")
	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.GetOrCreateDocument(ctx, "a.pdf", 3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	doc, err := s.GetOrCreateDocument(ctx, "a.pdf", 9)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount)
	assert.Equal(t, path, s.Path())
}

func TestGetOrCreateDocument_ReusesByFilename(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateDocument(ctx, "contract.docx", 2)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.False(t, first.UploadDate.IsZero())

	again, err := s.GetOrCreateDocument(ctx, "contract.docx", 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.PageCount)

	other, err := s.GetOrCreateDocument(ctx, "notes.txt", 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSaveResults_RecentAndByRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc, err := s.GetOrCreateDocument(ctx, "report.pdf", 4)
	require.NoError(t, err)

	require.NoError(t, s.SaveResults(ctx, []Result{
		{DocumentID: doc.ID, RunID: "run-1", Term: "payment", Page: 1, Excerpt: "Payment is due.", Summary: "Payment is due."},
		{DocumentID: doc.ID, RunID: "run-1", Term: "payment", Page: 3, Excerpt: "Late payment fees apply.", Summary: "Late payment fees apply."},
	}))
	require.NoError(t, s.SaveResults(ctx, []Result{
		{DocumentID: doc.ID, RunID: "run-2", Term: "fee", Page: 3, Excerpt: "Late payment fees apply."},
	}))
	require.NoError(t, s.SaveResults(ctx, nil))

	recent, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "run-2", recent[0].RunID)
	assert.Equal(t, "report.pdf", recent[0].Filename)
	assert.False(t, recent[0].CreatedAt.IsZero())

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	run, err := s.ResultsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, run, 2)
	assert.Equal(t, 1, run[0].Page)
	assert.Equal(t, 3, run[1].Page)
	assert.Equal(t, "payment", run[1].Term)
}

func TestResultsByRun_Unknown(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.ResultsByRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveResults_RejectsUnknownDocument(t *testing.T) {
	s := setupTestStore(t)
	err := s.SaveResults(context.Background(), []Result{{DocumentID: 999, RunID: "r", Term: "x", Page: 1, Excerpt: "x"}})
	assert.Error(t, err)

	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
