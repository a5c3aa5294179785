// Package app wires extraction, term search, persistence and AI summaries
// into analysis runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/termsearch/internal/cache"
	"github.com/hyperifyio/termsearch/internal/extract"
	"github.com/hyperifyio/termsearch/internal/llm"
	"github.com/hyperifyio/termsearch/internal/store"
	"github.com/hyperifyio/termsearch/internal/summarize"
	"github.com/hyperifyio/termsearch/internal/textproc"
)

var (
	// ErrNoTerms is returned when a run has no usable search terms.
	ErrNoTerms = errors.New("no search terms")
	// ErrNoDocuments is returned when a run has no uploads.
	ErrNoDocuments = errors.New("no documents")
	// ErrNoMatches signals a completed run without a single match. Callers
	// use it to pick a distinct exit status.
	ErrNoMatches = errors.New("no matches found")
)

// Upload is a document to analyse. Name is the user-facing file name and
// selects the format; Path is where the bytes live on disk.
type Upload struct {
	Name string
	Path string
}

// App owns the long-lived resources of the application.
type App struct {
	cfg        Config
	store      *store.Store
	engine     *textproc.Engine
	summarizer *summarize.Summarizer
	pages      *cache.PageCache
}

// Option customises New.
type Option func(*options)

type options struct {
	client llm.Client
}

// WithLLMClient replaces the OpenAI client, for tests and custom backends.
func WithLLMClient(c llm.Client) Option {
	return func(o *options) { o.client = c }
}

// New validates cfg, prepares the cache, opens the store and builds the
// search engine and summarizer.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	seg, err := textproc.NewSegmenter(cfg.Segmenter)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg: cfg,
		engine: textproc.New(
			textproc.WithSegmenter(seg),
			textproc.WithWindow(cfg.ContextWindow),
			textproc.WithSummaryLength(cfg.SummaryMaxLength),
		),
	}

	var llmCache *cache.LLMCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("expired cache entries purged")
			}
		}
		if n, err := cache.EnforceSummaryLimits(cfg.CacheDir, cfg.CacheMaxSummaries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("least recently used summaries evicted")
		}
		a.pages = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		llmCache = &cache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	if !cfg.NoAISummary {
		client := o.client
		if client == nil && (cfg.LLMAPIKey != "" || cfg.LLMBaseURL != "") {
			client = llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newLLMHTTPClient())
		}
		if client != nil {
			a.summarizer = &summarize.Summarizer{
				Client:  client,
				Model:   cfg.LLMModel,
				Cache:   llmCache,
				Limiter: summarize.NewLimiter(cfg.LLMRequestsPerMinute),
			}
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st
	return a, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Engine returns the configured search engine.
func (a *App) Engine() *textproc.Engine { return a.engine }

// Analyze extracts every upload, searches it for every term, stores the
// matches under a new run id and builds an overview. A file that cannot be
// extracted is recorded in Report.Failures and the run continues.
func (a *App) Analyze(ctx context.Context, uploads []Upload, terms []string) (Report, error) {
	terms = cleanTerms(terms)
	if len(terms) == 0 {
		return Report{}, ErrNoTerms
	}
	if len(uploads) == 0 {
		return Report{}, ErrNoDocuments
	}
	rep := Report{
		RunID:     uuid.NewString(),
		Generated: time.Now().UTC(),
		Terms:     terms,
		Failures:  map[string]string{},
	}
	logger := log.With().Str("run", rep.RunID).Logger()

	extracted, err := a.extractAll(ctx, uploads)
	if err != nil {
		return Report{}, err
	}

	for i, up := range uploads {
		ex := extracted[i]
		if ex.err != nil {
			logger.Warn().Err(ex.err).Str("file", up.Name).Msg("document skipped")
			rep.Failures[up.Name] = ex.err.Error()
			continue
		}
		doc, err := a.store.GetOrCreateDocument(ctx, up.Name, len(ex.pages))
		if err != nil {
			return Report{}, fmt.Errorf("document %s: %w", up.Name, err)
		}
		var rows []store.Result
		for _, term := range terms {
			for _, m := range a.engine.Matches(ex.pages, term) {
				rows = append(rows, store.Result{
					DocumentID: doc.ID,
					RunID:      rep.RunID,
					Term:       term,
					Page:       m.Page,
					Excerpt:    m.Excerpt,
					Summary:    m.Summary,
				})
				rep.Findings = append(rep.Findings, Finding{
					Document: up.Name,
					Term:     term,
					Page:     m.Page,
					Excerpt:  m.Excerpt,
					Summary:  m.Summary,
				})
			}
		}
		if err := a.store.SaveResults(ctx, rows); err != nil {
			return Report{}, fmt.Errorf("save results for %s: %w", up.Name, err)
		}
		logger.Debug().Str("file", up.Name).Int("pages", len(ex.pages)).Int("matches", len(rows)).Msg("document analysed")
	}

	a.overview(ctx, &rep)
	logger.Info().Int("documents", len(uploads)-len(rep.Failures)).Int("matches", len(rep.Findings)).Msg("analysis finished")
	return rep, nil
}

type extraction struct {
	pages extract.Pages
	err   error
}

// extractAll extracts uploads with bounded parallelism. Per-file errors are
// returned in the slice; only cancellation aborts the whole batch.
func (a *App) extractAll(ctx context.Context, uploads []Upload) ([]extraction, error) {
	out := make([]extraction, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	limit := a.cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages, err := a.extract(gctx, up)
			out[i] = extraction{pages: pages, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *App) extract(ctx context.Context, up Upload) (extract.Pages, error) {
	ex, err := extract.ForPath(up.Name)
	if err != nil {
		return nil, err
	}
	format := extract.Format(up.Name)

	var digest string
	if a.pages != nil {
		if d, err := cache.DigestFile(up.Path); err == nil {
			digest = d
			if pages, _, ok, _ := a.pages.Load(ctx, digest); ok {
				log.Debug().Str("file", up.Name).Msg("pages from cache")
				return pages, nil
			}
		}
	}

	pages, err := ex.Extract(ctx, up.Path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", format, err)
	}
	if digest != "" {
		if err := a.pages.Save(ctx, digest, up.Name, format, pages); err != nil {
			log.Warn().Err(err).Str("file", up.Name).Msg("page cache write failed")
		}
	}
	return pages, nil
}

// overview fills rep.Overview, preferring the model and falling back to an
// extractive summary with a notice explaining why.
func (a *App) overview(ctx context.Context, rep *Report) {
	if len(rep.Findings) == 0 {
		return
	}
	items := make([]summarize.Item, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		items = append(items, summarize.Item{Document: f.Document, Term: f.Term, Excerpt: f.Excerpt})
	}

	if a.summarizer != nil {
		text, err := a.summarizer.SummarizeResults(ctx, items)
		if err == nil {
			rep.Overview = text
			rep.OverviewSource = OverviewAI
			return
		}
		log.Warn().Err(err).Str("run", rep.RunID).Msg("AI overview failed; using extractive summary")
		rep.OverviewNotice = summarize.UserMessage(err)
	} else if a.cfg.NoAISummary {
		rep.OverviewNotice = "AI summary disabled; showing an extractive overview."
	} else {
		rep.OverviewNotice = summarize.UserMessage(summarize.ErrNotConfigured)
	}
	rep.Overview = summarize.ExtractiveResults(items, summarize.DefaultExtractiveSentences)
	rep.OverviewSource = OverviewExtractive
}

// SummarizeText returns an AI summary of text, or an extractive one with a
// notice when the model is unavailable.
func (a *App) SummarizeText(ctx context.Context, text string) (summary string, notice string, err error) {
	if strings.TrimSpace(text) == "" {
		return "", "", summarize.ErrEmptyInput
	}
	if a.summarizer != nil {
		out, err := a.summarizer.SummarizeText(ctx, text, 0)
		if err == nil {
			return out, "", nil
		}
		if errors.Is(err, context.Canceled) {
			return "", "", err
		}
		notice = summarize.UserMessage(err)
	} else {
		notice = summarize.UserMessage(summarize.ErrNotConfigured)
	}
	return summarize.Extractive(text, summarize.DefaultExtractiveSentences), notice, nil
}

// History returns the most recent stored results, newest first.
func (a *App) History(ctx context.Context, limit int) ([]store.Result, error) {
	return a.store.Recent(ctx, limit)
}

// RunResults returns the stored results of one run.
func (a *App) RunResults(ctx context.Context, runID string) ([]store.Result, error) {
	return a.store.ResultsByRun(ctx, runID)
}

// UploadsFromPaths turns local file paths into uploads named after their base
// name. Missing files are reported immediately.
func UploadsFromPaths(paths []string) ([]Upload, error) {
	out := make([]Upload, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		out = append(out, Upload{Name: info.Name(), Path: p})
	}
	return out, nil
}
