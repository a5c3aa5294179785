package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/termsearch/internal/app"
)

// cli carries the flag values shared by every subcommand.
type cli struct {
	out        io.Writer
	configPath string
	envFiles   []string
	flags      app.Config
	cfg        app.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, flags: app.Defaults()}
	root := &cobra.Command{
		Use:   "termsearch",
		Short: "Search documents for terms and summarize the surrounding context",
		Long: `termsearch extracts text from PDF, Word, plain text and HTML files,
finds every occurrence of the given terms regardless of case and accents,
and reports the sentences around each match. Results are stored in SQLite
and can be exported to Excel, Markdown or PDF.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.loadConfig(cmd) },
		Version:           fmt.Sprintf("%s (commit %s, built %s)", app.BuildVersion, app.BuildCommit, app.BuildDate),
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Path to YAML or JSON config file")
	pf.StringSliceVar(&c.envFiles, "env", []string{".env"}, "Dotenv files to load before reading the environment")
	pf.StringVar(&c.flags.DBPath, "db", c.flags.DBPath, "SQLite database path")
	pf.StringVar(&c.flags.CacheDir, "cache.dir", c.flags.CacheDir, "Cache directory for extracted pages and summaries (empty disables)")
	pf.DurationVar(&c.flags.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (0 disables)")
	pf.IntVar(&c.flags.CacheMaxSummaries, "cache.maxSummaries", 0, "Keep at most this many cached summaries (0 is unlimited)")
	pf.BoolVar(&c.flags.CacheClear, "cache.clear", false, "Clear the cache directory before running")
	pf.BoolVar(&c.flags.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	pf.StringVar(&c.flags.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	pf.StringVar(&c.flags.LLMModel, "llm.model", c.flags.LLMModel, "Model used for AI summaries")
	pf.StringVar(&c.flags.LLMAPIKey, "llm.key", "", "API key for the model server")
	pf.IntVar(&c.flags.LLMRequestsPerMinute, "llm.rpm", 0, "Maximum model requests per minute (0 is unlimited)")
	pf.BoolVar(&c.flags.NoAISummary, "no-ai", false, "Skip AI summaries and use extractive overviews")
	pf.IntVar(&c.flags.ContextWindow, "window", c.flags.ContextWindow, "Characters of context kept on each side of a match")
	pf.IntVar(&c.flags.SummaryMaxLength, "summary.length", c.flags.SummaryMaxLength, "Maximum characters of an excerpt preview")
	pf.StringVar(&c.flags.Segmenter, "segmenter", c.flags.Segmenter, "Sentence segmenter: punkt, rules or none")
	pf.IntVar(&c.flags.Concurrency, "concurrency", c.flags.Concurrency, "Documents extracted in parallel")
	pf.BoolVarP(&c.flags.Verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newAnalyzeCmd(c),
		newHistoryCmd(c),
		newExportCmd(c),
		newSummarizeCmd(c),
		newServeCmd(c),
		newMCPCmd(c),
	)
	return root
}

// flagSetters copies a flag's value from the parsed flags onto the layered
// config, keyed by flag name.
var flagSetters = map[string]func(dst, src *app.Config){
	"db":                 func(d, s *app.Config) { d.DBPath = s.DBPath },
	"cache.dir":          func(d, s *app.Config) { d.CacheDir = s.CacheDir },
	"cache.maxAge":       func(d, s *app.Config) { d.CacheMaxAge = s.CacheMaxAge },
	"cache.maxSummaries": func(d, s *app.Config) { d.CacheMaxSummaries = s.CacheMaxSummaries },
	"cache.clear":        func(d, s *app.Config) { d.CacheClear = s.CacheClear },
	"cache.strictPerms":  func(d, s *app.Config) { d.CacheStrictPerms = s.CacheStrictPerms },
	"llm.base":           func(d, s *app.Config) { d.LLMBaseURL = s.LLMBaseURL },
	"llm.model":          func(d, s *app.Config) { d.LLMModel = s.LLMModel },
	"llm.key":            func(d, s *app.Config) { d.LLMAPIKey = s.LLMAPIKey },
	"llm.rpm":            func(d, s *app.Config) { d.LLMRequestsPerMinute = s.LLMRequestsPerMinute },
	"no-ai":              func(d, s *app.Config) { d.NoAISummary = s.NoAISummary },
	"window":             func(d, s *app.Config) { d.ContextWindow = s.ContextWindow },
	"summary.length":     func(d, s *app.Config) { d.SummaryMaxLength = s.SummaryMaxLength },
	"segmenter":          func(d, s *app.Config) { d.Segmenter = s.Segmenter },
	"concurrency":        func(d, s *app.Config) { d.Concurrency = s.Concurrency },
	"verbose":            func(d, s *app.Config) { d.Verbose = s.Verbose },
	"addr":               func(d, s *app.Config) { d.ListenAddr = s.ListenAddr },
}

// loadConfig layers configuration with precedence flags > env > file >
// defaults.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(c.envFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg := app.Defaults()
	if c.configPath != "" {
		fc, err := app.LoadConfigFile(c.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if set, ok := flagSetters[f.Name]; ok {
			set(&cfg, &c.flags)
		}
	})
	c.cfg = cfg

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return app.ValidateConfig(cfg)
}

// openApp builds the application from the layered config.
func (c *cli) openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), c.cfg)
}
