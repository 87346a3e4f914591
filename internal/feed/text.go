package feed

import (
	"bufio"
	"bytes"
	"strings"
)

// maxLineSize caps a single line; anything longer is treated as a
// malformed body rather than buffered without bound.
const maxLineSize = 1 << 20

// TextParser yields one candidate per non-empty line.
type TextParser struct{}

func (TextParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

		n := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
			n++
		}

		if err := scanner.Err(); err != nil {
			yield("", decodeError(FormatText, n, err))
		}
	}
}
