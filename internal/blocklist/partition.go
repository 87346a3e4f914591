package blocklist

import (
	"slices"

	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// Partition splits a snapshot into one artifact per source tag.
//
// Catalog tags come first in catalog order and always get an artifact,
// empty if nothing was attributed to them. Tags outside the catalog follow
// in byte order. Records are carried whole, so a record listed by two
// sources appears in both artifacts with both sources. Records without
// sources, or with a tag that cannot name a file, are filed under
// domain.UnknownSource.
//
// The manifest lists exactly the catalog tags.
func Partition(snapshot domain.Snapshot, catalog domain.Catalog) ([]domain.Artifact, domain.Manifest) {
	groups := make(map[domain.SourceTag][]domain.DomainRecord)

	for _, rec := range snapshot.Domains {
		if len(rec.Sources) == 0 {
			rec.Sources = []domain.SourceTag{domain.UnknownSource}
		}

		seen := make(map[domain.SourceTag]struct{}, len(rec.Sources))
		for _, tag := range rec.Sources {
			if !tag.Valid() {
				tag = domain.UnknownSource
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			groups[tag] = append(groups[tag], rec)
		}
	}

	order := make([]domain.SourceTag, 0, len(catalog)+len(groups))
	order = append(order, catalog...)

	var extra []domain.SourceTag
	for tag := range groups {
		if !catalog.Contains(tag) {
			extra = append(extra, tag)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	artifacts := make([]domain.Artifact, 0, len(order))
	for _, tag := range order {
		records := groups[tag]
		if records == nil {
			records = []domain.DomainRecord{}
		}
		artifacts = append(artifacts, domain.Artifact{
			Source:  tag,
			File:    tag.FileName(),
			Domains: records,
		})
	}

	manifest := domain.Manifest{Files: make([]domain.ManifestEntry, 0, len(catalog))}
	for _, tag := range catalog {
		manifest.Files = append(manifest.Files, domain.ManifestEntry{File: tag.FileName(), Source: tag})
	}

	return artifacts, manifest
}
