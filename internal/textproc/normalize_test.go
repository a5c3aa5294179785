package textproc

import (
	"strings"
	"testing"
)

func TestNormalize_FoldsAccentsAndCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"café", "cafe"},
		{"cafe", "cafe"},
		{"CAFÉ", "cafe"},
		{"Ångström naïve", "angstrom naive"},
		{"  Hello,\tWorld!\n ", "hello world"},
		{"a-b c", "ab c"},
		{"ﬁle", "file"},
		{"日本語 text", "text"},
		{"", ""},
		{"\x00\x01 ctrl \x7f", "ctrl"},
		{"Straße", "strae"},
		{"Price: $12.50 (net)", "price 1250 net"},
		{"non\u00a0breaking", "non breaking"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"The Cat sat.",
		"Résumé — Ünïcödé…",
		"  lots   of\n\nspace ",
		"MiXeD 123 ÇaSe",
		string([]byte{0xff, 0xfe, 'a', ' ', 'b'}),
		"ﬀ ﬃ ™ ½",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_OutputAlphabet(t *testing.T) {
	in := "  Ça va? Oui!!  42 \t fois... ¿Qué?  "
	got := Normalize(in)
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Fatalf("leading/trailing space in %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("double space in %q", got)
	}
	for _, r := range got {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ') {
			t.Fatalf("unexpected rune %q in %q", r, got)
		}
	}
}
