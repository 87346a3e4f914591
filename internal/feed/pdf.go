package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfMagic starts every PDF file. Bodies without it are treated as text
// that was already extracted upstream.
var pdfMagic = []byte("%PDF-")

// PDFParser yields whitespace-separated tokens or whole lines of a PDF
// report's text.
type PDFParser struct {
	Mode PDFMode
}

func (p PDFParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		if !bytes.HasPrefix(data, pdfMagic) {
			p.yieldText(string(data), 0, yield)
			return
		}

		reader, err := openPDF(data)
		if err != nil {
			yield("", decodeError(FormatPDF, 0, err))
			return
		}

		n := 0
		for i := 1; i <= reader.NumPage(); i++ {
			text, pageErr := pageText(reader, i)
			if pageErr != nil {
				yield("", decodeError(FormatPDF, n, fmt.Errorf("page %d: %w", i, pageErr)))
				return
			}

			var ok bool
			if n, ok = p.yieldText(text, n, yield); !ok {
				return
			}
		}
	}
}

// yieldText splits text per mode, returning the running candidate count
// and false once the consumer stopped.
func (p PDFParser) yieldText(text string, n int, yield func(string, error) bool) (int, bool) {
	var pieces []string
	if p.Mode == PDFLines {
		pieces = strings.Split(text, "\n")
	} else {
		pieces = strings.Fields(text)
	}

	for _, piece := range pieces {
		piece = strings.Join(strings.Fields(piece), " ")
		if piece == "" {
			continue
		}
		if !yield(piece, nil) {
			return n, false
		}
		n++
	}
	return n, true
}

// openPDF guards against the reader panicking on corrupt cross-reference
// tables.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return reader, nil
}

func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract text: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
