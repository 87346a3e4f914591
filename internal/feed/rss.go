package feed

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"
)

// httpPrefix marks a GUID usable as a link.
const httpPrefix = "http"

// RSSParser yields the link of every RSS or Atom item. Phishing trackers
// commonly publish recent detections this way.
type RSSParser struct{}

func (RSSParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
		if err != nil {
			yield("", decodeError(FormatRSS, 0, err))
			return
		}

		for _, item := range parsed.Items {
			link := itemLink(item)
			if link == "" {
				continue
			}
			if !yield(link, nil) {
				return
			}
		}
	}
}

// itemLink prefers the explicit link and falls back to an http GUID.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if strings.HasPrefix(item.GUID, httpPrefix) {
		return item.GUID
	}
	return ""
}
