// Package feed turns raw feed bodies into sequences of candidate strings.
//
// Every supported input shape is a Format variant with its own Parser. A
// parser never fails outright: it yields the candidates it could decode
// and, if decoding stopped early, one final *DecodeError.
package feed

import (
	"iter"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// Format is the declared or inferred shape of a feed body.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatRSS  Format = "rss"
	FormatXLSX Format = "xlsx"
)

// HTMLMode selects what an HTML page contributes.
type HTMLMode string

const (
	// HTMLLinks yields the href of every anchor.
	HTMLLinks HTMLMode = "links"
	// HTMLText yields every line of the page's flattened text.
	HTMLText HTMLMode = "text"
)

// PDFMode selects how extracted PDF text is split.
type PDFMode string

const (
	// PDFTokens splits on whitespace; suits dense domain listings.
	PDFTokens PDFMode = "tokens"
	// PDFLines keeps whole lines; suits one-institution-per-line reports.
	PDFLines PDFMode = "lines"
)

// FreeTextPolicy decides what happens to candidates that are neither a URL
// nor a bare domain.
type FreeTextPolicy string

const (
	FreeTextReject FreeTextPolicy = "reject"
	FreeTextGuess  FreeTextPolicy = "guess"
)

// Candidates is a lazy, restartable sequence of raw candidates. A non-nil
// error is always the last element and carries a *DecodeError.
type Candidates = iter.Seq2[string, error]

// Parser turns a feed body into candidates.
type Parser interface {
	Parse(data []byte) Candidates
}

// Spec describes one feed: where it lives, how to read it and which source
// tag its domains are attributed to. Exactly one of URL and Path is set.
type Spec struct {
	Source   domain.SourceTag `yaml:"source"`
	URL      string           `yaml:"url"`
	Path     string           `yaml:"path"`
	Format   Format           `yaml:"format"`
	HTMLMode HTMLMode         `yaml:"html_mode"`
	PDFMode  PDFMode          `yaml:"pdf_mode"`
	FreeText FreeTextPolicy   `yaml:"free_text"`
	Severity domain.Severity  `yaml:"severity"`
	// Discover enables the landing-page fallback when the feed yields no
	// candidates.
	Discover bool `yaml:"discover"`
}

// Location returns the URL or path of the feed, for logging.
func (s Spec) Location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// IsLocal reports whether the feed is read from disk.
func (s Spec) IsLocal() bool {
	return s.URL == "" && s.Path != ""
}

// InferFormat picks a format from a file name or URL and, failing that,
// from an HTTP Content-Type. Unknown shapes are read as plain text.
func InferFormat(location, contentType string) Format {
	if f, ok := formatFromExtension(location); ok {
		return f
	}
	if f, ok := formatFromContentType(contentType); ok {
		return f
	}
	return FormatText
}

func formatFromExtension(location string) (Format, bool) {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV, true
	case ".json":
		return FormatJSON, true
	case ".html", ".htm":
		return FormatHTML, true
	case ".pdf":
		return FormatPDF, true
	case ".xml", ".rss", ".atom":
		return FormatRSS, true
	case ".xlsx":
		return FormatXLSX, true
	case ".txt", ".list":
		return FormatText, true
	default:
		return "", false
	}
}

func formatFromContentType(contentType string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}

	switch {
	case mediaType == "text/csv":
		return FormatCSV, true
	case mediaType == "application/json":
		return FormatJSON, true
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return FormatHTML, true
	case mediaType == "application/pdf":
		return FormatPDF, true
	case strings.HasSuffix(mediaType, "rss+xml"), strings.HasSuffix(mediaType, "atom+xml"):
		return FormatRSS, true
	case mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// ParserFor returns the parser for a feed. format must already be resolved
// (see InferFormat). contentType and location only matter for HTML: the
// first picks the charset, the second resolves relative links.
func ParserFor(spec Spec, format Format, contentType, location string) Parser {
	switch format {
	case FormatCSV:
		return CSVParser{}
	case FormatJSON:
		return JSONParser{}
	case FormatHTML:
		mode := spec.HTMLMode
		if mode == "" {
			mode = HTMLLinks
		}
		return HTMLParser{Mode: mode, ContentType: contentType, BaseURL: location}
	case FormatPDF:
		mode := spec.PDFMode
		if mode == "" {
			mode = PDFTokens
			if spec.FreeText == FreeTextGuess {
				mode = PDFLines
			}
		}
		return PDFParser{Mode: mode}
	case FormatRSS:
		return RSSParser{}
	case FormatXLSX:
		return XLSXParser{}
	default:
		return TextParser{}
	}
}

// Collect drains a candidate sequence into a slice, returning the decode
// error, if any, alongside the candidates recovered before it.
func Collect(seq Candidates) ([]string, error) {
	var out []string
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}
