package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes dir and everything in it, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes page and summary entries older than maxAge from dir
// and reports how many entries were removed. A non-positive maxAge is a no-op.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	pages, err := PurgePagesByAge(dir, maxAge)
	if err != nil {
		return pages, err
	}
	summaries, err := PurgeSummariesByAge(dir, maxAge)
	return pages + summaries, err
}

// PurgePagesByAge removes page cache entries whose SavedAt is older than
// maxAge. Both the metadata and the body are deleted.
func PurgePagesByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e PageEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}

// PurgeSummariesByAge removes summary entries last used more than maxAge ago.
func PurgeSummariesByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now()
	removed := 0
	for _, f := range summaryFiles(dir) {
		if now.Sub(f.mod) <= maxAge {
			continue
		}
		if os.Remove(f.path) == nil {
			removed++
		}
	}
	return removed, nil
}

// EnforceSummaryLimits evicts least recently used summary entries until at
// most maxCount remain. A non-positive maxCount is a no-op.
func EnforceSummaryLimits(dir string, maxCount int) (int, error) {
	if maxCount <= 0 {
		return 0, nil
	}
	files := summaryFiles(dir)
	if len(files) <= maxCount {
		return 0, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })
	removed := 0
	for _, f := range files[:len(files)-maxCount] {
		if os.Remove(f.path) == nil {
			removed++
		}
	}
	return removed, nil
}

type cacheFile struct {
	path string
	mod  time.Time
}

// summaryFiles lists *.json entries that are not page metadata.
func summaryFiles(dir string) []cacheFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []cacheFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".meta.json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, cacheFile{path: filepath.Join(dir, name), mod: info.ModTime()})
	}
	return out
}
