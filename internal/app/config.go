package app

import (
	"errors"
	"strings"
	"time"

	"github.com/hyperifyio/termsearch/internal/textproc"
)

// Defaults applied by flag parsing. ApplyFileConfig treats a field still at
// its default as unset.
const (
	DefaultDBPath      = "termsearch.db"
	DefaultCacheDir    = ".termsearch-cache"
	DefaultModel       = "gpt-4o"
	DefaultConcurrency = 4
	DefaultListenAddr  = "127.0.0.1:8080"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Storage
	DBPath string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// LLMRequestsPerMinute paces summary requests; 0 means unlimited.
	LLMRequestsPerMinute int
	NoAISummary          bool

	// Search
	ContextWindow    int
	SummaryMaxLength int
	Segmenter        string
	Concurrency      int

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	// CacheMaxSummaries caps stored AI summaries; 0 means unlimited.
	CacheMaxSummaries int
	CacheClear        bool
	CacheStrictPerms  bool

	// Server
	ListenAddr string

	Verbose bool
}

// Defaults returns a Config with every default filled in.
func Defaults() Config {
	return Config{
		DBPath:           DefaultDBPath,
		LLMModel:         DefaultModel,
		ContextWindow:    textproc.DefaultWindow,
		SummaryMaxLength: textproc.DefaultSummaryLength,
		Segmenter:        "punkt",
		Concurrency:      DefaultConcurrency,
		CacheDir:         DefaultCacheDir,
		ListenAddr:       DefaultListenAddr,
	}
}

// ValidateConfig rejects configurations the application cannot run with.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("config: database path is required (or set TERMSEARCH_DB)")
	}
	if cfg.ContextWindow < 0 || cfg.SummaryMaxLength < 0 || cfg.Concurrency < 0 ||
		cfg.LLMRequestsPerMinute < 0 || cfg.CacheMaxAge < 0 || cfg.CacheMaxSummaries < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if _, err := textproc.NewSegmenter(cfg.Segmenter); err != nil {
		return errors.New("config: segmenter must be one of punkt, rules, none")
	}
	return nil
}
