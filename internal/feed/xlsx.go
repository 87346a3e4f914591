package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser yields every non-empty cell of every sheet, row by row.
// Regulators often circulate institution lists as spreadsheets.
type XLSXParser struct{}

func (XLSXParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			yield("", decodeError(FormatXLSX, 0, err))
			return
		}
		defer f.Close()

		n := 0
		for _, sheet := range f.GetSheetList() {
			var ok bool
			if n, ok = yieldSheet(f, sheet, n, yield); !ok {
				return
			}
		}
	}
}

func yieldSheet(f *excelize.File, sheet string, n int, yield func(string, error) bool) (int, bool) {
	rows, err := f.Rows(sheet)
	if err != nil {
		yield("", decodeError(FormatXLSX, n, fmt.Errorf("sheet %q: %w", sheet, err)))
		return n, false
	}
	defer rows.Close()

	for rows.Next() {
		cols, colErr := rows.Columns()
		if colErr != nil {
			yield("", decodeError(FormatXLSX, n, fmt.Errorf("sheet %q: %w", sheet, colErr)))
			return n, false
		}

		for _, cell := range cols {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if !yield(cell, nil) {
				return n, false
			}
			n++
		}
	}

	if rowsErr := rows.Error(); rowsErr != nil {
		yield("", decodeError(FormatXLSX, n, fmt.Errorf("sheet %q: %w", sheet, rowsErr)))
		return n, false
	}
	return n, true
}
