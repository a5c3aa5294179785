package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured means no API key or client is available.
	ErrNotConfigured = errors.New("summarizer not configured")
	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("rate limit reached")
	// ErrQuotaExceeded means the account has no remaining credits.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrInvalidAPIKey means the provider rejected the credentials.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrNoResults is returned by SummarizeResults for an empty result set.
	ErrNoResults = errors.New("no results to summarize")
	// ErrEmptyInput is returned by SummarizeText for blank text.
	ErrEmptyInput = errors.New("empty text")
	// ErrEmptyResponse means the model answered with no usable content.
	ErrEmptyResponse = errors.New("empty model response")
)

// classify maps provider errors onto the sentinels above, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrRateLimited, ErrQuotaExceeded, ErrInvalidAPIKey} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	status := 0
	code := ""
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		if c, ok := apiErr.Code.(string); ok {
			code = c
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	msg := strings.ToLower(err.Error())

	switch {
	case code == "insufficient_quota" || strings.Contains(msg, "quota") || strings.Contains(msg, "billing"):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case status == http.StatusTooManyRequests || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case status == http.StatusUnauthorized || code == "invalid_api_key" ||
		(strings.Contains(msg, "invalid") && strings.Contains(msg, "api")):
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
	}
	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrInvalidAPIKey),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// UserMessage turns a summarizer error into text suitable for end users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "OpenAI API key not found. Please provide a valid API key to enable summarization."
	case errors.Is(err, ErrRateLimited):
		return "OpenAI API rate limit reached. Please try again in a few moments."
	case errors.Is(err, ErrQuotaExceeded):
		return "OpenAI API quota exceeded. Please ensure your account has available credits and billing is set up correctly."
	case errors.Is(err, ErrInvalidAPIKey):
		return "Invalid OpenAI API key. Please provide a valid API key."
	}
	return "Error generating summary: " + err.Error()
}
