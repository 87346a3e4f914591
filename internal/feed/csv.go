package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// CSVParser yields every non-empty cell of every row. Feeds differ in
// which column holds the indicator, so no column is privileged. Lines
// starting with '#' are comments, as in the abuse.ch dumps.
type CSVParser struct{}

func (CSVParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		r.Comment = '#'
		r.TrimLeadingSpace = true
		r.ReuseRecord = true

		n := 0
		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", decodeError(FormatCSV, n, err))
				return
			}

			for _, cell := range record {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				if !yield(cell, nil) {
					return
				}
				n++
			}
		}
	}
}
