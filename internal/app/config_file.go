package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/termsearch/internal/textproc"
)

// FileConfig is the YAML/JSON configuration file schema.
type FileConfig struct {
	DB string `yaml:"db" json:"db"`

	LLM struct {
		BaseURL           string `yaml:"base" json:"base"`
		Model             string `yaml:"model" json:"model"`
		APIKey            string `yaml:"key" json:"key"`
		RequestsPerMinute int    `yaml:"rpm" json:"rpm"`
		Disable           bool   `yaml:"disable" json:"disable"`
	} `yaml:"llm" json:"llm"`

	Search struct {
		Window        int    `yaml:"window" json:"window"`
		SummaryLength int    `yaml:"summaryLength" json:"summaryLength"`
		Segmenter     string `yaml:"segmenter" json:"segmenter"`
		Concurrency   int    `yaml:"concurrency" json:"concurrency"`
	} `yaml:"search" json:"search"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig. Unknown extensions are
// tried as YAML, then JSON.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays fc onto cfg for fields that are unset or still at
// their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.DBPath == "" || cfg.DBPath == DefaultDBPath) && fc.DB != "" {
		cfg.DBPath = fc.DB
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if (cfg.LLMModel == "" || cfg.LLMModel == DefaultModel) && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.LLMRequestsPerMinute == 0 && fc.LLM.RequestsPerMinute > 0 {
		cfg.LLMRequestsPerMinute = fc.LLM.RequestsPerMinute
	}
	if !cfg.NoAISummary && fc.LLM.Disable {
		cfg.NoAISummary = true
	}

	if (cfg.ContextWindow == 0 || cfg.ContextWindow == textproc.DefaultWindow) && fc.Search.Window > 0 {
		cfg.ContextWindow = fc.Search.Window
	}
	if (cfg.SummaryMaxLength == 0 || cfg.SummaryMaxLength == textproc.DefaultSummaryLength) && fc.Search.SummaryLength > 0 {
		cfg.SummaryMaxLength = fc.Search.SummaryLength
	}
	if (cfg.Segmenter == "" || cfg.Segmenter == "punkt") && fc.Search.Segmenter != "" {
		cfg.Segmenter = fc.Search.Segmenter
	}
	if (cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency) && fc.Search.Concurrency > 0 {
		cfg.Concurrency = fc.Search.Concurrency
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.CacheMaxSummaries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxSummaries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if (cfg.ListenAddr == "" || cfg.ListenAddr == DefaultListenAddr) && fc.Server.Addr != "" {
		cfg.ListenAddr = fc.Server.Addr
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
