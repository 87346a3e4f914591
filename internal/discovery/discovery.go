// Package discovery finds the downloadable feed behind an HTML landing
// page. Publishers move their export links around; when a configured URL
// stops yielding candidates, the page usually still links to the data.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/fetcher"
)

// ErrNoCandidate is returned when a page links to nothing that looks like
// a feed.
var ErrNoCandidate = errors.New("no feed link found")

// Link text markers that suggest a data export.
const (
	csvMarker      = ".csv"
	downloadMarker = "download"
	recentMarker   = "recent"
)

// Discoverer looks for feed links on landing pages.
type Discoverer struct {
	fetcher fetcher.Fetcher
	log     logger.Logger
}

// New creates a Discoverer.
func New(f fetcher.Fetcher, log logger.Logger) *Discoverer {
	return &Discoverer{fetcher: f, log: log}
}

// Discover fetches pageURL and returns the first link that looks like a
// downloadable feed.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) (string, error) {
	resp, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch landing page: %w", err)
	}

	candidates := LinkCandidates(pageURL, resp.Body)
	for _, candidate := range candidates {
		if candidate == pageURL {
			continue
		}
		d.log.Debug("Discovered feed link",
			logger.String("page", pageURL),
			logger.String("feed_url", candidate),
			logger.Int("candidates", len(candidates)),
		)
		return candidate, nil
	}

	return "", ErrNoCandidate
}

// LinkCandidates returns the resolved hrefs of anchors that point at a CSV
// file or whose text mentions a download or recent data, in document
// order.
func LinkCandidates(baseURL string, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var candidates []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if !isFollowable(href) {
			return
		}

		text := strings.ToLower(s.Text())
		if !strings.Contains(strings.ToLower(href), csvMarker) &&
			!strings.Contains(text, downloadMarker) &&
			!strings.Contains(text, recentMarker) {
			return
		}

		resolved := resolveURL(baseURL, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		candidates = append(candidates, resolved)
	})

	return candidates
}

func isFollowable(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	return !strings.HasPrefix(lower, "javascript:") && !strings.HasPrefix(lower, "mailto:")
}

// resolveURL resolves a potentially relative href against a base URL.
func resolveURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}
