// Package budget estimates prompt sizes so text sent for summarization
// stays inside the model context window.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// EstimateTokensFromChars converts a character count into an estimated token
// count at roughly four characters per token, rounding up.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of s.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(utf8.RuneCountInString(s))
}

// EstimatePromptTokens estimates a prompt made of a system message, a user
// message and zero or more excerpts.
func EstimatePromptTokens(system string, user string, excerpts []string) int {
	total := EstimateTokens(system) + EstimateTokens(user)
	for _, ex := range excerpts {
		total += EstimateTokens(ex)
	}
	return total
}

// ModelContextTokens returns the approximate context window of modelName.
// Unknown models get 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range []struct {
		suffix string
		tokens int
	}{
		{"1m", 1_000_000},
		{"512k", 512_000},
		{"200k", 200_000},
		{"128k", 128_000},
		{"32k", 32_768},
		{"16k", 16_384},
	} {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// HeadroomTokens is the larger of 5% of the model context and 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// InputBudget returns how many tokens of user content fit next to system
// once reservedForOutput and headroom are set aside. Never negative.
func InputBudget(modelName string, system string, reservedForOutput int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - EstimateTokens(system)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TruncateToTokens cuts s so that its estimate fits maxTokens. It prefers
// to cut at the last whitespace inside the limit and reports whether
// anything was removed.
func TruncateToTokens(s string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", s != ""
	}
	limit := maxTokens * 4
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	cut := string(runes[:limit])
	if i := strings.LastIndexAny(cut, " \n\t"); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut), true
}

var knownModelMax = map[string]int{
	"":                   8192,
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-4":              8192,
	"gpt-3.5-turbo":      16_384,
	"llama-3":            8192,
	"llama-3.1":          128_000,
	"openai/gpt-oss-20b": 4096,
	"gpt-oss-20b":        4096,
}
