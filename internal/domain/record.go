package domain

import (
	"slices"
	"time"
)

// DomainRecord is one canonical domain and every source that listed it.
//
// Sources is kept sorted and free of duplicates. Unverified marks a
// domain produced by the name-to-domain heuristic rather than read from
// a feed; it stays set only while every observation was a guess.
type DomainRecord struct {
	Domain     string      `json:"domain"`
	Sources    []SourceTag `json:"sources"`
	Unverified bool        `json:"unverified,omitempty"`
	Severity   Severity    `json:"severity,omitempty"`
}

// HasSource reports whether tag is attributed to the record.
func (r DomainRecord) HasSource(tag SourceTag) bool {
	_, found := slices.BinarySearch(r.Sources, tag)
	return found
}

// WithSource returns a copy of r with tag added to its sources. The
// receiver's slice is never modified.
func (r DomainRecord) WithSource(tag SourceTag) DomainRecord {
	idx, found := slices.BinarySearch(r.Sources, tag)
	if found {
		return r
	}

	sources := make([]SourceTag, 0, len(r.Sources)+1)
	sources = append(sources, r.Sources[:idx]...)
	sources = append(sources, tag)
	sources = append(sources, r.Sources[idx:]...)
	r.Sources = sources

	return r
}

// Snapshot is the full, sorted, deduplicated result of one run.
type Snapshot struct {
	GeneratedAt time.Time      `json:"last_updated"`
	Domains     []DomainRecord `json:"domains"`
}

// Artifact is the per-source view of a snapshot.
type Artifact struct {
	Source  SourceTag      `json:"-"`
	File    string         `json:"-"`
	Domains []DomainRecord `json:"domains"`
}

// ManifestEntry pairs an artifact file with its source tag.
type ManifestEntry struct {
	File   string    `json:"file"`
	Source SourceTag `json:"source"`
}

// Manifest indexes the artifacts consumers should expect.
type Manifest struct {
	Files []ManifestEntry `json:"files"`
}
