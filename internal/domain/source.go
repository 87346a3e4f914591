// Package domain holds the data model shared by the aggregation pipeline:
// source tags, domain records, snapshots, artifacts and the manifest.
package domain

import (
	"regexp"
	"strings"
)

// SourceTag identifies the feed or provider a domain was attributed to.
// Tags compare case-insensitively; the canonical form is lowercase.
type SourceTag string

// UnknownSource groups records that carry no source at all.
const UnknownSource SourceTag = "unknown"

// reservedTags would collide with other files in the artifact directory.
var reservedTags = []SourceTag{"manifest"}

var tagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// NewSourceTag returns the canonical form of tag.
func NewSourceTag(tag string) SourceTag {
	return SourceTag(strings.ToLower(strings.TrimSpace(tag)))
}

// Valid reports whether t is canonical and safe to use as an artifact
// file name: lowercase letters, digits, dots, dashes and underscores,
// starting with a letter or digit, no "..", and not a reserved name.
func (t SourceTag) Valid() bool {
	s := string(t)
	if !tagPattern.MatchString(s) || strings.Contains(s, "..") {
		return false
	}
	for _, r := range reservedTags {
		if t == r {
			return false
		}
	}
	return true
}

// SafeSourceTag canonicalizes raw and files anything that cannot name an
// artifact under UnknownSource. Blank input stays blank.
func SafeSourceTag(raw string) SourceTag {
	tag := NewSourceTag(raw)
	if tag == "" || tag.Valid() {
		return tag
	}
	return UnknownSource
}

// String implements fmt.Stringer.
func (t SourceTag) String() string {
	return string(t)
}

// FileName is the artifact file name for the tag.
func (t SourceTag) FileName() string {
	return string(t) + ".json"
}

// Catalog is the ordered list of source tags every run must publish,
// whether or not a tag matched any domain.
type Catalog []SourceTag

// DefaultCatalog lists the sources the browser extension expects.
var DefaultCatalog = Catalog{"urlhaus", "openphish", "ugc", "aicte", "custom"}

// NewCatalog canonicalizes tags and drops blanks and duplicates while
// keeping the first occurrence's position.
func NewCatalog(tags []string) Catalog {
	seen := make(map[SourceTag]struct{}, len(tags))
	catalog := make(Catalog, 0, len(tags))

	for _, raw := range tags {
		tag := NewSourceTag(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		catalog = append(catalog, tag)
	}

	return catalog
}

// Contains reports whether tag is part of the catalog.
func (c Catalog) Contains(tag SourceTag) bool {
	for _, t := range c {
		if t == tag {
			return true
		}
	}
	return false
}
