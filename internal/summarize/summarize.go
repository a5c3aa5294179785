// Package summarize produces short AI summaries of excerpts and of whole
// result sets through an OpenAI-compatible chat model.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/termsearch/internal/budget"
	"github.com/hyperifyio/termsearch/internal/cache"
	"github.com/hyperifyio/termsearch/internal/llm"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"
	// TextMaxTokens bounds the answer of SummarizeText.
	TextMaxTokens = 150
	// ResultsMaxTokens bounds the answer of SummarizeResults.
	ResultsMaxTokens = 200
	// ResultsLimit is how many results are sent to the model.
	ResultsLimit = 5

	temperature = 0.5

	textSystemPrompt    = "You are a precise document summarizer. Create a concise summary that captures the key points."
	resultsSystemPrompt = "Create a brief summary of the search results, highlighting key findings and patterns."
)

// Item is one search result handed to SummarizeResults.
type Item struct {
	Document string
	Term     string
	Excerpt  string
}

// Summarizer calls the model. The zero value is unusable; Client must be set.
type Summarizer struct {
	Client llm.Client
	Model  string
	// Cache, when set, answers repeated prompts without a model call.
	Cache *cache.LLMCache
	// Limiter, when set, paces outgoing requests.
	Limiter *rate.Limiter
}

// SummarizeText summarizes a single text. maxTokens <= 0 means TextMaxTokens.
func (s *Summarizer) SummarizeText(ctx context.Context, text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = TextMaxTokens
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	text = s.fit(textSystemPrompt, text, maxTokens)
	return s.complete(ctx, textSystemPrompt, "Please summarize the following text:\n\n"+text, maxTokens)
}

// SummarizeResults writes an overview of the first ResultsLimit items.
func (s *Summarizer) SummarizeResults(ctx context.Context, items []Item) (string, error) {
	if len(items) == 0 {
		return "", ErrNoResults
	}
	body := s.fit(resultsSystemPrompt, resultsContext(items), ResultsMaxTokens)
	return s.complete(ctx, resultsSystemPrompt, "Please summarize these search results:\n\n"+body, ResultsMaxTokens)
}

func resultsContext(items []Item) string {
	if len(items) > ResultsLimit {
		items = items[:ResultsLimit]
	}
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Document: %s\nTerm: %s\nContext: %s\n", it.Document, it.Term, it.Excerpt)
	}
	return sb.String()
}

func (s *Summarizer) model() string {
	if m := strings.TrimSpace(s.Model); m != "" {
		return m
	}
	return DefaultModel
}

// fit trims user content so the request stays inside the model window.
func (s *Summarizer) fit(system, content string, maxTokens int) string {
	out, cut := budget.TruncateToTokens(content, budget.InputBudget(s.model(), system, maxTokens))
	if cut {
		log.Debug().Str("model", s.model()).Int("tokens", budget.EstimateTokens(out)).Msg("summary input truncated")
	}
	return out
}

func (s *Summarizer) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if s == nil || s.Client == nil {
		return "", ErrNotConfigured
	}
	model := s.model()
	key := cache.KeyFrom(model, fmt.Sprintf("%s\n\n%s\n\n%d", system, user, maxTokens))
	if s.Cache != nil {
		if e, ok, _ := s.Cache.Get(ctx, key); ok {
			log.Debug().Str("model", model).Msg("summary cache hit")
			return e.Text, nil
		}
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		N:           1,
	}
	resp, err := s.call(ctx, req)
	if err != nil {
		err = classify(err)
		if !retryable(err) {
			return "", err
		}
		log.Warn().Err(err).Str("model", model).Msg("summary request failed; retrying once")
		sleep(ctx, retryDelay)
		resp, err = s.call(ctx, req)
		if err != nil {
			return "", fmt.Errorf("summary call (after retry): %w", classify(err))
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	if s.Cache != nil {
		if err := s.Cache.Save(ctx, key, model, out); err != nil {
			log.Warn().Err(err).Msg("summary cache write failed")
		}
	}
	return out, nil
}

func (s *Summarizer) call(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, err
		}
	}
	return s.Client.CreateChatCompletion(ctx, req)
}

// retryDelay is the pause before the single retry. Tests shorten it.
var retryDelay = 500 * time.Millisecond

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// NewLimiter returns a limiter allowing rpm requests per minute, or nil for
// an unlimited rate.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// IsConfigured reports whether s can make model calls.
func (s *Summarizer) IsConfigured() bool {
	return s != nil && s.Client != nil
}
