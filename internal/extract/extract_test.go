package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  hello   world  ", "hello world"},
		{"a\x00b", "ab"},
		{"line one\n\n\tline two", "line one line two"},
		{"bell\x07 and del\x7f", "bell and del"},
	}
	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Fatalf("CleanText(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestPaginate_SplitsByRunes(t *testing.T) {
	pages := paginate(strings.Repeat("é", 7), 3)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0] != "ééé" || pages[2] != "é" {
		t.Fatalf("unexpected pages: %#v", pages)
	}
	if got := paginate("", 3); len(got) != 0 {
		t.Fatalf("empty input should give no pages, got %#v", got)
	}
}

func TestGroupParagraphs_ClosesPageAtSize(t *testing.T) {
	paras := []string{"aaaa", "", "bbbb", "cc"}
	pages := groupParagraphs(paras, 8)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2: %#v", len(pages), pages)
	}
	if pages[0] != "aaaa\nbbbb" {
		t.Fatalf("page 0=%q", pages[0])
	}
	if pages[1] != "cc" {
		t.Fatalf("page 1=%q", pages[1])
	}
}

func TestForPath(t *testing.T) {
	cases := map[string]Extractor{
		"a.pdf":  PDFExtractor{},
		"b.DOCX": WordExtractor{},
		"c.doc":  WordExtractor{},
		"d.txt":  TextExtractor{},
		"e.htm":  HTMLExtractor{},
	}
	for name, want := range cases {
		got, err := ForPath(name)
		if err != nil {
			t.Fatalf("ForPath(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ForPath(%q)=%T want %T", name, got, want)
		}
	}
	if _, err := ForPath("notes.odt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestTextExtractor(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	body := strings.Repeat("word ", 1000)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	pages, err := File(context.Background(), p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.HasPrefix(pages[0], "word word") {
		t.Fatalf("page 0 starts with %q", pages[0][:20])
	}
}

func TestTextExtractor_RejectsInvalidUTF8(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(p, []byte{0xff, 0xfe, 0x00}, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := File(context.Background(), p); !errors.Is(err, ErrNotUTF8) {
		t.Fatalf("expected ErrNotUTF8, got %v", err)
	}
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	if documentXML != "" {
		w, err := zw.Create("word/document.xml")
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(documentXML)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWordExtractor(t *testing.T) {
	p := filepath.Join(t.TempDir(), "report.docx")
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>The contract </w:t></w:r><w:r><w:t>was signed.</w:t></w:r></w:p>
<w:p><w:r><w:t>Payment is due in March.</w:t></w:r></w:p>
</w:body>
</w:document>`
	writeDocx(t, p, doc)

	pages, err := File(context.Background(), p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	want := "The contract was signed.\nPayment is due in March."
	if pages[0] != want {
		t.Fatalf("page 0=%q want %q", pages[0], want)
	}
}

func TestWordExtractor_MissingBody(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.docx")
	writeDocx(t, p, "")
	if _, err := File(context.Background(), p); !errors.Is(err, ErrNoDocumentBody) {
		t.Fatalf("expected ErrNoDocumentBody, got %v", err)
	}
}

func TestHTMLExtractor_SkipsBoilerplate(t *testing.T) {
	page := `<html><head><title> Notice </title><script>var x = "hidden";</script></head>
<body>
<nav>Home | About</nav>
<div class="cookie-banner">We use cookies</div>
<main><h1>Annual report</h1><p>Revenue grew in the third quarter.</p></main>
<footer>Copyright</footer>
</body></html>`
	title, text, err := readableText([]byte(page))
	if err != nil {
		t.Fatalf("readableText: %v", err)
	}
	if title != "Notice" {
		t.Fatalf("title=%q", title)
	}
	for _, banned := range []string{"hidden", "Home", "cookies", "Copyright"} {
		if strings.Contains(text, banned) {
			t.Fatalf("text contains %q: %q", banned, text)
		}
	}

	p := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(p, []byte(page), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	pages, err := File(context.Background(), p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if pages[0] != "Annual report Revenue grew in the third quarter." {
		t.Fatalf("page 0=%q", pages[0])
	}
}

func TestPDFExtractor_BadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(p, []byte("not a pdf"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := File(context.Background(), p); err == nil {
		t.Fatalf("expected error for invalid pdf")
	}
}
