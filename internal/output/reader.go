package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/Mohammedmarzuk17/EduShield/internal/blocklist"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
)

// ReadSnapshot loads a snapshot file for re-partitioning. Besides the
// snapshot this package writes, it accepts the legacy bare array of
// domains and hand-edited files: entries that are not objects, or objects
// without sources, are attributed to domain.UnknownSource. Duplicate
// entries are merged.
func ReadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	return ParseSnapshot(data)
}

type snapshotDocument struct {
	LastUpdated string            `json:"last_updated"`
	Domains     []json.RawMessage `json:"domains"`
}

// ParseSnapshot decodes a snapshot document. Malformed JSON is repaired
// once before giving up.
func ParseSnapshot(data []byte) (domain.Snapshot, error) {
	doc, err := decodeSnapshot(data)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
		}
		if doc, err = decodeSnapshot([]byte(repaired)); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode repaired snapshot: %w", err)
		}
	}

	var generatedAt time.Time
	if doc.LastUpdated != "" {
		if generatedAt, err = time.Parse(time.RFC3339, doc.LastUpdated); err != nil {
			return domain.Snapshot{}, fmt.Errorf("parse last_updated: %w", err)
		}
	}

	m := make(blocklist.Mapping, len(doc.Domains))
	for _, raw := range doc.Domains {
		for _, obs := range observations(raw) {
			m = blocklist.Merge(m, obs)
		}
	}

	return blocklist.Build(m, generatedAt), nil
}

func decodeSnapshot(data []byte) (snapshotDocument, error) {
	var doc snapshotDocument

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &doc.Domains)
		return doc, err
	}

	err := json.Unmarshal(trimmed, &doc)
	return doc, err
}

// observations turns one snapshot entry into one observation per source.
func observations(raw json.RawMessage) []blocklist.Observation {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var entry any
	if err := dec.Decode(&entry); err != nil {
		return nil
	}

	var (
		d        normalize.Domain
		sources  []domain.SourceTag
		severity domain.Severity
	)

	switch v := entry.(type) {
	case map[string]any:
		name, _ := v["domain"].(string)
		d.Name = strings.TrimSpace(name)
		d.Unverified, _ = v["unverified"].(bool)
		if s, ok := v["severity"].(string); ok {
			severity = domain.Severity(strings.ToLower(s))
		}
		sources = sourceTags(v["sources"])
	case string:
		d.Name = strings.TrimSpace(v)
	case json.Number:
		d.Name = v.String()
	case bool:
		d.Name = fmt.Sprint(v)
	}

	if d.Name == "" {
		return nil
	}
	if len(sources) == 0 {
		sources = []domain.SourceTag{domain.UnknownSource}
	}

	out := make([]blocklist.Observation, 0, len(sources))
	for _, tag := range sources {
		out = append(out, blocklist.Observation{Source: tag, Domain: d, Severity: severity})
	}
	return out
}

// sourceTags accepts a list of tags or a single tag. Tags that cannot
// name an artifact file are read as domain.UnknownSource.
func sourceTags(v any) []domain.SourceTag {
	var raw []string
	switch s := v.(type) {
	case string:
		raw = []string{s}
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				raw = append(raw, str)
			}
		}
	}

	var tags []domain.SourceTag
	for _, r := range raw {
		if tag := domain.SafeSourceTag(r); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
