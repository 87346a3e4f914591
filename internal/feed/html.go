package feed

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// HTMLParser yields either anchor hrefs or the lines of a page's visible
// text. Pages publishing indicators are split between link lists and
// tables of names, so the mode is configured per feed.
type HTMLParser struct {
	Mode HTMLMode
	// ContentType is the HTTP Content-Type, used to pick the charset when
	// the document does not declare one.
	ContentType string
	// BaseURL is where the page was fetched from. Relative links resolve
	// against it, or against the page's <base href>. Links back to the
	// page's own host are skipped, as are relative links with no base.
	BaseURL string
}

// blockElements end a line in the flattened text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "option": true, "p": true,
	"pre": true, "section": true, "table": true, "tbody": true, "td": true,
	"tfoot": true, "th": true, "thead": true, "tr": true, "ul": true,
}

// skippedElements never contribute text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

func (p HTMLParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		doc, err := goquery.NewDocumentFromReader(p.decode(data))
		if err != nil {
			yield("", decodeError(FormatHTML, 0, err))
			return
		}

		if p.Mode == HTMLText {
			yieldTextLines(doc, yield)
			return
		}

		base := p.base(doc)
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			link, ok := absoluteLink(base, s.AttrOr("href", ""))
			if !ok || p.sameSite(base, link) {
				return true
			}
			return yield(link.String(), nil)
		})
	}
}

// base combines BaseURL with the document's <base href>, if any.
func (p HTMLParser) base(doc *goquery.Document) *url.URL {
	var base *url.URL
	if u, err := url.Parse(p.BaseURL); err == nil && u.IsAbs() {
		base = u
	}

	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return base
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	switch {
	case err != nil:
		return base
	case base != nil:
		return base.ResolveReference(ref)
	case ref.IsAbs():
		return ref
	}
	return nil
}

// absoluteLink resolves href and keeps it only if it is an http(s) URL
// with a host. File names like "list.csv" would otherwise pass for
// domains.
func absoluteLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}

	scheme := strings.ToLower(ref.Scheme)
	if (scheme != "http" && scheme != "https") || ref.Host == "" {
		return nil, false
	}
	return ref, true
}

// sameSite reports whether link points back at the publishing site. Those
// links are the page's own navigation, not listed domains.
func (p HTMLParser) sameSite(base, link *url.URL) bool {
	host := link.Hostname()
	if base != nil && strings.EqualFold(host, base.Hostname()) {
		return true
	}
	page, err := url.Parse(p.BaseURL)
	return err == nil && page.Host != "" && strings.EqualFold(host, page.Hostname())
}
