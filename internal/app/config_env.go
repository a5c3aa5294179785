package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// apiKeyFromEnv prefers OPENAI_API_KEY and falls back to LLM_API_KEY.
func apiKeyFromEnv() string {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("LLM_API_KEY")
}

func intFromEnv(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func durationFromEnv(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// boolFromEnv reports the parsed value and whether the variable held a
// recognised boolean.
func boolFromEnv(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ApplyEnvToConfig fills unset fields of cfg from environment variables.
// Values already present in cfg win.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = apiKeyFromEnv()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = os.Getenv("TERMSEARCH_DB")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.Segmenter == "" {
		cfg.Segmenter = strings.ToLower(strings.TrimSpace(os.Getenv("SEGMENTER")))
	}
	if cfg.ContextWindow == 0 {
		if n, ok := intFromEnv("CONTEXT_WINDOW"); ok {
			cfg.ContextWindow = n
		}
	}
	if cfg.SummaryMaxLength == 0 {
		if n, ok := intFromEnv("SUMMARY_MAX_LENGTH"); ok {
			cfg.SummaryMaxLength = n
		}
	}
	if cfg.LLMRequestsPerMinute == 0 {
		if n, ok := intFromEnv("LLM_RPM"); ok {
			cfg.LLMRequestsPerMinute = n
		}
	}
	if cfg.CacheMaxAge == 0 {
		if d, ok := durationFromEnv("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.CacheMaxSummaries == 0 {
		if n, ok := intFromEnv("CACHE_MAX_SUMMARIES"); ok {
			cfg.CacheMaxSummaries = n
		}
	}
	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		if v, ok := boolFromEnv(key); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.NoAISummary, "NO_AI_SUMMARY")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides overwrites cfg with every environment variable that is
// set. It runs after the config file is applied so the environment beats the
// file, while flags applied afterwards still win.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := apiKeyFromEnv(); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("TERMSEARCH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SEGMENTER")); v != "" {
		cfg.Segmenter = strings.ToLower(v)
	}
	if n, ok := intFromEnv("CONTEXT_WINDOW"); ok {
		cfg.ContextWindow = n
	}
	if n, ok := intFromEnv("SUMMARY_MAX_LENGTH"); ok {
		cfg.SummaryMaxLength = n
	}
	if n, ok := intFromEnv("LLM_RPM"); ok {
		cfg.LLMRequestsPerMinute = n
	}
	if d, ok := durationFromEnv("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if n, ok := intFromEnv("CACHE_MAX_SUMMARIES"); ok {
		cfg.CacheMaxSummaries = n
	}
	setBool := func(dst *bool, key string) {
		if v, ok := boolFromEnv(key); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.NoAISummary, "NO_AI_SUMMARY")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
