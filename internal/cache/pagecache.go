package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PageEntry describes a cached extraction.
type PageEntry struct {
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	PageCount int       `json:"page_count"`
	SavedAt   time.Time `json:"saved_at"`
}

// PageCache stores extracted page text as <digest>.meta.json and
// <digest>.body, where digest is the SHA-256 of the source file content.
// The same bytes uploaded under another name hit the same entry.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

// DigestFile returns the hex SHA-256 of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *PageCache) metaPath(digest string) string {
	return filepath.Join(c.Dir, digest+".meta.json")
}

func (c *PageCache) bodyPath(digest string) string {
	return filepath.Join(c.Dir, digest+".body")
}

// Load returns the cached pages for digest. ok is false on a miss.
func (c *PageCache) Load(_ context.Context, digest string) (pages map[int]string, entry PageEntry, ok bool, err error) {
	if c == nil {
		return nil, PageEntry{}, false, ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, PageEntry{}, false, err
	}
	meta, err := os.ReadFile(c.metaPath(digest))
	if err != nil {
		return nil, PageEntry{}, false, nil
	}
	if err := json.Unmarshal(meta, &entry); err != nil {
		return nil, PageEntry{}, false, nil
	}
	body, err := os.ReadFile(c.bodyPath(digest))
	if err != nil {
		return nil, PageEntry{}, false, nil
	}
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, PageEntry{}, false, nil
	}
	return pages, entry, true, nil
}

// Save stores pages under digest. The body is written before the metadata
// so a reader never sees metadata without its body.
func (c *PageCache) Save(_ context.Context, digest, filename, format string, pages map[int]string) error {
	if c == nil {
		return ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	body, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("encode pages: %w", err)
	}
	mode := fileMode(c.StrictPerms)
	if err := os.WriteFile(c.bodyPath(digest), body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(PageEntry{
		Filename:  filename,
		Format:    format,
		PageCount: len(pages),
		SavedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(digest) + ".tmp"
	if err := os.WriteFile(tmp, meta, mode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(digest))
}
