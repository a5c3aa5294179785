// Package cache keeps AI summaries and extracted document pages on disk so
// repeated analyses of the same input skip the expensive step.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrNoDir is returned when a cache is used without a directory.
var ErrNoDir = errors.New("cache dir not configured")

// SummaryEntry is one cached model answer.
type SummaryEntry struct {
	Model   string    `json:"model"`
	Text    string    `json:"text"`
	SavedAt time.Time `json:"saved_at"`
}

// LLMCache stores summaries as <key>.json files. Reads touch the file so
// EnforceSummaryLimits can evict least recently used entries.
type LLMCache struct {
	Dir string
	// StrictPerms writes directories as 0700 and files as 0600.
	StrictPerms bool
}

func ensureDir(dir string, strict bool) error {
	if dir == "" {
		return ErrNoDir
	}
	perm := os.FileMode(0o755)
	if strict {
		perm = 0o700
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

// KeyFrom builds a cache key from the model name and the full prompt.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached summary for key. A missing or unreadable entry is
// a miss, not an error.
func (c *LLMCache) Get(_ context.Context, key string) (SummaryEntry, bool, error) {
	if c == nil {
		return SummaryEntry{}, false, ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return SummaryEntry{}, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return SummaryEntry{}, false, nil
	}
	var e SummaryEntry
	if err := json.Unmarshal(b, &e); err != nil || e.Text == "" {
		return SummaryEntry{}, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e, true, nil
}

// Save writes the summary text for key.
func (c *LLMCache) Save(_ context.Context, key string, model string, text string) error {
	if c == nil {
		return ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	b, err := json.Marshal(SummaryEntry{Model: model, Text: text, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), b, fileMode(c.StrictPerms))
}
