package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX_ColumnsAndWidths(t *testing.T) {
	rows := []Row{
		{Document: "a.pdf", Term: "payment", Page: 2, Excerpt: "Payment is due in thirty days."},
		{Document: "a.pdf", Term: "fee", Page: 7, Excerpt: strings.Repeat("x", 80)},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetName(0); got != SheetName {
		t.Fatalf("sheet name=%q", got)
	}
	header := []string{"A1", "B1", "C1"}
	for i, want := range []string{"Search Term", "Page", "Excerpt"} {
		got, err := f.GetCellValue(SheetName, header[i])
		if err != nil || got != want {
			t.Fatalf("%s=%q err=%v want %q", header[i], got, err, want)
		}
	}
	if got, _ := f.GetCellValue(SheetName, "B3"); got != "7" {
		t.Fatalf("B3=%q want 7", got)
	}
	if got, _ := f.GetCellValue(SheetName, "A2"); got != "payment" {
		t.Fatalf("A2=%q", got)
	}

	// "Search Term" is 11 characters, so the column is 13 wide
	if w, err := f.GetColWidth(SheetName, "A"); err != nil || w != 13 {
		t.Fatalf("A width=%v err=%v want 13", w, err)
	}
	if w, _ := f.GetColWidth(SheetName, "C"); w != 50 {
		t.Fatalf("C width=%v want capped 50", w)
	}
}

func TestMarkdown_GroupsByTerm(t *testing.T) {
	r := Report{
		RunID:     "run-1",
		Generated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Terms:     []string{"fee", "payment", "absent"},
		Overview:  "Fees and payments appear on two pages.",
		Notice:    "AI summary unavailable; showing an extractive overview.",
		Rows: []Row{
			{Document: "a.pdf", Term: "payment", Page: 1, Excerpt: "Payment is due.", Summary: "Payment is due."},
			{Document: "b.docx", Term: "fee", Page: 3, Excerpt: "A fee applies."},
		},
		Failures: map[string]string{"c.odt": "unsupported file format"},
	}
	md := Markdown(r)
	feeAt := strings.Index(md, "## Results for: fee")
	payAt := strings.Index(md, "## Results for: payment")
	if feeAt < 0 || payAt < 0 || feeAt > payAt {
		t.Fatalf("expected sections in term order:\n%s", md)
	}
	for _, want := range []string{
		"Run: run-1",
		"Generated: 2024-05-01T12:00:00Z",
		"### Page 3 - b.docx",
		"**Context Summary:** Payment is due.",
		"_AI summary unavailable; showing an extractive overview._",
		"- c.odt: unsupported file format",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "absent") {
		t.Fatalf("terms without matches should not get a section")
	}
}

func TestMarkdown_NoMatches(t *testing.T) {
	md := Markdown(Report{Terms: []string{"x"}})
	if !strings.Contains(md, "No matches found") {
		t.Fatalf("got:\n%s", md)
	}
	if !strings.HasPrefix(md, "# Document Search Results") {
		t.Fatalf("default title missing:\n%s", md)
	}
}

func TestWritePDF(t *testing.T) {
	md := Markdown(Report{
		Terms: []string{"café"},
		Rows:  []Row{{Document: "menu.txt", Term: "café", Page: 1, Excerpt: "The café opens at nine."}},
	})
	var buf bytes.Buffer
	if err := WritePDF(&buf, md); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
