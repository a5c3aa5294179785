// Package store persists analysed documents and their search results in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hyperifyio/termsearch/internal/store/migrations"
)

// DefaultRecentLimit is the number of rows Recent returns when no limit is given.
const DefaultRecentLimit = 50

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Document is one uploaded file, identified by its name.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadDate time.Time `json:"upload_date"`
	PageCount  int       `json:"page_count"`
}

// Result is one stored excerpt. Filename is filled on reads.
type Result struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Filename   string    `json:"filename,omitempty"`
	RunID      string    `json:"run_id"`
	Term       string    `json:"search_term"`
	Page       int       `json:"page_number"`
	Excerpt    string    `json:"excerpt"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// GetOrCreateDocument returns the document stored under filename, creating
// it with pageCount when it does not exist yet. An existing row keeps its
// original page count.
func (s *Store) GetOrCreateDocument(ctx context.Context, filename string, pageCount int) (Document, error) {
	doc, err := s.documentByName(ctx, filename)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Document{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (filename, upload_date, page_count) VALUES (?, ?, ?)
	`, filename, now, pageCount)
	if err != nil {
		return Document{}, fmt.Errorf("saving document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Document{}, fmt.Errorf("document id: %w", err)
	}
	return Document{ID: id, Filename: filename, UploadDate: now, PageCount: pageCount}, nil
}

func (s *Store) documentByName(ctx context.Context, filename string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, upload_date, page_count
		FROM documents WHERE filename = ? ORDER BY id LIMIT 1
	`, filename)
	var doc Document
	var uploaded sql.NullTime
	if err := row.Scan(&doc.ID, &doc.Filename, &uploaded, &doc.PageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("scanning document: %w", err)
	}
	if uploaded.Valid {
		doc.UploadDate = uploaded.Time
	}
	return doc, nil
}

// SaveResults stores results in a single transaction. Rows without a
// CreatedAt get the current time.
func (s *Store) SaveResults(ctx context.Context, results []Result) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_results (document_id, run_id, search_term, page_number, excerpt, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range results {
		created := r.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, r.DocumentID, r.RunID, r.Term, r.Page, r.Excerpt, r.Summary, created); err != nil {
			return fmt.Errorf("saving result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns the newest results first, joined with their document
// names. A non-positive limit means DefaultRecentLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.queryResults(ctx, `
		SELECT r.id, r.document_id, d.filename, r.run_id, r.search_term, r.page_number, r.excerpt, r.summary, r.created_at
		FROM search_results r JOIN documents d ON d.id = r.document_id
		ORDER BY r.id DESC LIMIT ?
	`, limit)
}

// ResultsByRun returns the results of one analysis run in insertion order.
func (s *Store) ResultsByRun(ctx context.Context, runID string) ([]Result, error) {
	results, err := s.queryResults(ctx, `
		SELECT r.id, r.document_id, d.filename, r.run_id, r.search_term, r.page_number, r.excerpt, r.summary, r.created_at
		FROM search_results r JOIN documents d ON d.id = r.document_id
		WHERE r.run_id = ?
		ORDER BY r.id
	`, runID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var created sql.NullTime
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Filename, &r.RunID, &r.Term, &r.Page, &r.Excerpt, &r.Summary, &created); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if created.Valid {
			r.CreatedAt = created.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return out, nil
}
