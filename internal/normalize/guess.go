package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSuffix is appended to names by the default guesser. The original
// feeds list Indian institutions.
const DefaultSuffix = ".edu.in"

// maxLabelLength is the DNS limit for a single label.
const maxLabelLength = 63

// Guesser derives a domain from free text, such as an institution name.
// Guesses are never verified.
type Guesser interface {
	Guess(text string) (string, bool)
}

// DefaultGuesser appends DefaultSuffix.
var DefaultGuesser Guesser = SuffixGuesser{Suffix: DefaultSuffix}

// SuffixGuesser squeezes a name into a single label and appends Suffix.
// "Université Fictive" becomes "universitefictive.edu.in".
type SuffixGuesser struct {
	Suffix string
}

// Guess implements Guesser.
func (g SuffixGuesser) Guess(text string) (string, bool) {
	var b strings.Builder
	hasLetter := false

	for _, r := range strings.ToLower(removeAccents(text)) {
		switch {
		case r >= 'a' && r <= 'z':
			hasLetter = true
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}

	if !hasLetter || b.Len() > maxLabelLength {
		return "", false
	}

	suffix := g.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return b.String() + strings.ToLower(suffix), true
}

// removeAccents decomposes s and drops the combining marks.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
