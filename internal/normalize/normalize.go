// Package normalize turns raw feed candidates into canonical domain names.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Mohammedmarzuk17/EduShield/internal/feed"
)

// domainShape is the label-based shape a canonical domain must match.
var domainShape = regexp.MustCompile(`^([a-z0-9-]+\.)+[a-z]{2,}$`)

// nullish values are placeholders spreadsheets and JSON exports leave in
// empty cells.
var nullish = map[string]bool{
	"null": true,
	"none": true,
	"nan":  true,
}

// Domain is a normalized candidate.
type Domain struct {
	Name string
	// Unverified is set when Name was guessed from free text.
	Unverified bool
}

// Normalizer classifies candidates. The zero value rejects free text.
type Normalizer struct {
	Policy  feed.FreeTextPolicy
	Guesser Guesser
}

// New returns a normalizer applying policy to free text. A nil guesser
// falls back to DefaultGuesser.
func New(policy feed.FreeTextPolicy, guesser Guesser) Normalizer {
	if guesser == nil {
		guesser = DefaultGuesser
	}
	return Normalizer{Policy: policy, Guesser: guesser}
}

// WithPolicy returns a copy of n using policy. An empty policy keeps the
// current one, so feeds without an override inherit the global setting.
func (n Normalizer) WithPolicy(policy feed.FreeTextPolicy) Normalizer {
	if policy != "" {
		n.Policy = policy
	}
	return n
}

// Normalize maps a raw candidate to a canonical domain. ok is false when
// the candidate was rejected.
func (n Normalizer) Normalize(candidate string) (Domain, bool) {
	s := unquote(strings.TrimSpace(candidate))
	if s == "" || nullish[strings.ToLower(s)] {
		return Domain{}, false
	}

	if hasHTTPScheme(s) {
		host, ok := hostOf(s)
		if !ok {
			return Domain{}, false
		}
		return Domain{Name: host}, true
	}

	if name, ok := Canonical(s); ok {
		return Domain{Name: name}, true
	}

	if n.Policy != feed.FreeTextGuess {
		return Domain{}, false
	}

	guesser := n.Guesser
	if guesser == nil {
		guesser = DefaultGuesser
	}
	name, ok := guesser.Guess(s)
	if !ok {
		return Domain{}, false
	}
	return Domain{Name: name, Unverified: true}, true
}

// Canonical reports whether s is a bare domain, optionally followed by a
// path, query or fragment, and returns its canonical form.
func Canonical(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = stripWWW(s)

	if !domainShape.MatchString(s) {
		return "", false
	}
	return s, true
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// hostOf extracts the canonical host of an http(s) URL. IP literals fail
// the shape check and are rejected.
func hostOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = stripWWW(host)
	if host == "" || !domainShape.MatchString(host) {
		return "", false
	}
	return host, true
}

// stripWWW removes every leading "www." label so that canonical names
// are fixed points.
func stripWWW(s string) string {
	for strings.HasPrefix(s, "www.") {
		s = s[len("www."):]
	}
	return s
}

// unquote strips one layer of matching quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'' || first == '`') {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
