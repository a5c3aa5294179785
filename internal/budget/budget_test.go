package budget

import (
	"strings"
	"testing"
)

func TestEstimateTokensFromChars(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 1},
		{5, 2},
		{400, 100},
	}
	for _, c := range cases {
		if got := EstimateTokensFromChars(c.in); got != c.want {
			t.Fatalf("EstimateTokensFromChars(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEstimateTokens_CountsRunes(t *testing.T) {
	if got := EstimateTokens("éééé"); got != 1 {
		t.Fatalf("EstimateTokens = %d, want 1", got)
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	// system(6)->2, user(12)->3, excerpts 3->1 and 4->1
	if got := EstimatePromptTokens("system", "user message", []string{"abc", "defg"}); got != 7 {
		t.Fatalf("EstimatePromptTokens() = %d, want 7", got)
	}
}

func TestModelContextTokens(t *testing.T) {
	if ModelContextTokens("") != 8192 {
		t.Fatal("empty model should default to 8192")
	}
	if ModelContextTokens("GPT-4o") != 128_000 {
		t.Fatal("gpt-4o lookup should be case-insensitive")
	}
	if ModelContextTokens("mystery-512k") != 512_000 {
		t.Fatal("512k suffix should map to 512k tokens")
	}
	if ModelContextTokens("local-mini") != 128_000 {
		t.Fatal("mini models assume 128k")
	}
	if ModelContextTokens("unknown") != 8192 {
		t.Fatal("unknown model should default to 8192")
	}
}

func TestInputBudget(t *testing.T) {
	// 4096 - 512 headroom - 200 output - 1 system
	if got := InputBudget("gpt-oss-20b", "sys", 200); got != 3383 {
		t.Fatalf("InputBudget = %d, want 3383", got)
	}
	if got := InputBudget("gpt-oss-20b", "", 10_000); got != 0 {
		t.Fatalf("InputBudget should clamp at 0, got %d", got)
	}
}

func TestTruncateToTokens(t *testing.T) {
	s := strings.Repeat("word ", 10)
	out, cut := TruncateToTokens(s, 100)
	if cut || out != s {
		t.Fatalf("short input should be untouched")
	}
	out, cut = TruncateToTokens(s, 3)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if out != "word word" {
		t.Fatalf("got %q", out)
	}
	if out, cut := TruncateToTokens("abc", 0); out != "" || !cut {
		t.Fatalf("zero budget should drop everything")
	}
}
