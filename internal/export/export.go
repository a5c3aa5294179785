// Package export writes analysis results as Excel workbooks, Markdown and
// PDF reports.
package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds exported rows.
const SheetName = "Search Results"

// maxColumnWidth caps auto-sized columns.
const maxColumnWidth = 50

// Row is one excerpt in an export.
type Row struct {
	Document string
	Term     string
	Page     int
	Excerpt  string
	Summary  string
}

var xlsxHeader = []string{"Search Term", "Page", "Excerpt"}

// WriteXLSX writes rows to w as a workbook with one sheet. Columns are sized
// to their longest value plus two, capped at 50 characters.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(xlsxHeader))
	for i, h := range xlsxHeader {
		widths[i] = utf8.RuneCountInString(h)
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		values := []any{row.Term, row.Page, row.Excerpt}
		for c, v := range values {
			if err := setCell(f, c+1, r+2, v); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}
	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(min(width+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
