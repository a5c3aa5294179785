// Command openai-stub is a minimal OpenAI-compatible server that answers the
// termsearch summary prompts with deterministic text. Point --llm.base at it
// for offline runs.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// Failure modes selected with STUB_FAIL.
const (
	failNone      = ""
	failRateLimit = "rate_limit"
	failQuota     = "quota"
	failAuth      = "auth"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	fail := strings.TrimSpace(os.Getenv("STUB_FAIL"))

	log.Info().Str("addr", addr).Str("model", model).Str("fail", fail).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, fail)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model, fail string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		switch fail {
		case failRateLimit:
			writeAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit reached for requests")
			return
		case failQuota:
			writeAPIError(w, http.StatusTooManyRequests, "insufficient_quota", "You exceeded your current quota")
			return
		case failAuth:
			writeAPIError(w, http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided")
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid_request", "malformed body")
			return
		}
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = strings.TrimSpace(req.Messages[0].Content)
		}
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}
		var content string
		switch {
		case strings.Contains(sys, "precise document summarizer"):
			content = "Summary: " + firstSentence(afterHeader(user))
		case strings.Contains(sys, "summary of the search results"):
			docs := map[string]bool{}
			terms := map[string]bool{}
			for _, line := range strings.Split(user, "\n") {
				if v, ok := strings.CutPrefix(line, "Document: "); ok {
					docs[v] = true
				}
				if v, ok := strings.CutPrefix(line, "Term: "); ok {
					terms[v] = true
				}
			}
			content = "Overview: matches for " + strconv.Itoa(len(terms)) + " term(s) across " + strconv.Itoa(len(docs)) + " document(s)."
		default:
			writeAPIError(w, http.StatusBadRequest, "invalid_request", "unexpected system prompt")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"model": model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

// afterHeader drops the instruction line that precedes the payload.
func afterHeader(s string) string {
	if _, rest, ok := strings.Cut(s, "\n\n"); ok {
		return rest
	}
	return s
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "type": "stub_error", "code": code},
	})
}
