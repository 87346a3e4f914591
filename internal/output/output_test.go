package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/blocklist"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
	"github.com/Mohammedmarzuk17/EduShield/internal/output"
)

var generatedAt = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func sampleSnapshot() domain.Snapshot {
	return blocklist.Build(blocklist.Fold([]blocklist.Observation{
		{Source: "urlhaus", Domain: normalize.Domain{Name: "bad.com"}},
		{Source: "openphish", Domain: normalize.Domain{Name: "bad.com"}},
		{Source: "ugc", Domain: normalize.Domain{Name: "fake.edu.in", Unverified: true}},
	}), generatedAt)
}

func TestWriter_WriteAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snap := sampleSnapshot()
	artifacts, manifest := blocklist.Partition(snap, domain.DefaultCatalog)

	files, err := output.NewWriter(dir, logger.NewNop()).WriteAll(snap, artifacts, manifest)
	require.NoError(t, err)
	assert.Len(t, files, 1+len(artifacts)+1)

	raw, err := os.ReadFile(filepath.Join(dir, "blocklist.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2026-02-03T04:05:06Z", doc["last_updated"])

	raw, err = os.ReadFile(filepath.Join(dir, "blocklists", "aicte.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"domains": []}`, string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, "blocklists", "ugc.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"domains": [{"domain": "fake.edu.in", "sources": ["ugc"], "unverified": true}]}`, string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, "blocklists", "manifest.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"files": [
		{"file": "urlhaus.json", "source": "urlhaus"},
		{"file": "openphish.json", "source": "openphish"},
		{"file": "ugc.json", "source": "ugc"},
		{"file": "aicte.json", "source": "aicte"},
		{"file": "custom.json", "source": "custom"}
	]}`, string(raw))

	entries, err := os.ReadDir(filepath.Join(dir, "blocklists"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp files must not survive")
	}
}

func TestWriter_FailureLeavesExistingFiles(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}

	dir := t.TempDir()
	w := output.NewWriter(dir, logger.NewNop())
	snap := sampleSnapshot()
	artifacts, manifest := blocklist.Partition(snap, domain.DefaultCatalog)

	_, err := w.WriteAll(snap, artifacts, manifest)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, "blocklist.json"))
	require.NoError(t, err)

	blocklists := filepath.Join(dir, "blocklists")
	require.NoError(t, os.Chmod(blocklists, 0o500))
	t.Cleanup(func() { _ = os.Chmod(blocklists, 0o755) })

	empty := blocklist.Build(nil, generatedAt.Add(time.Hour))
	artifacts, manifest = blocklist.Partition(empty, domain.DefaultCatalog)
	_, err = w.WriteAll(empty, artifacts, manifest)
	require.Error(t, err)

	after, err := os.ReadFile(filepath.Join(dir, "blocklist.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestParseSnapshot_RoundTripsWrittenSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snap := sampleSnapshot()
	w := output.NewWriter(dir, logger.NewNop())
	_, err := w.WriteAll(snap, nil, domain.Manifest{Files: []domain.ManifestEntry{}})
	require.NoError(t, err)

	got, err := output.ReadSnapshot(w.SnapshotPath())
	require.NoError(t, err)
	assert.True(t, snap.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, snap.Domains, got.Domains)
}

func TestParseSnapshot_HandEditedEntries(t *testing.T) {
	t.Parallel()

	doc := `{"domains": [
		"plain.example",
		42,
		null,
		{"domain": "nosrc.example"},
		{"domain": "single.example", "sources": "UGC", "severity": "RED"},
		{"domain": "dup.example", "sources": ["custom"]},
		{"domain": "dup.example", "sources": ["urlhaus", "custom"]},
		{"sources": ["urlhaus"]}
	]}`

	snap, err := output.ParseSnapshot([]byte(doc))
	require.NoError(t, err)
	assert.True(t, snap.GeneratedAt.IsZero())

	byName := make(map[string]domain.DomainRecord)
	for _, rec := range snap.Domains {
		byName[rec.Domain] = rec
	}

	assert.Len(t, byName, 5)
	assert.Equal(t, []domain.SourceTag{"unknown"}, byName["plain.example"].Sources)
	assert.Equal(t, []domain.SourceTag{"unknown"}, byName["42"].Sources)
	assert.Equal(t, []domain.SourceTag{"unknown"}, byName["nosrc.example"].Sources)
	assert.Equal(t, []domain.SourceTag{"ugc"}, byName["single.example"].Sources)
	assert.Equal(t, domain.SeverityRed, byName["single.example"].Severity)
	assert.Equal(t, []domain.SourceTag{"custom", "urlhaus"}, byName["dup.example"].Sources)

	artifacts, manifest := blocklist.Partition(snap, domain.DefaultCatalog)
	assert.Len(t, manifest.Files, len(domain.DefaultCatalog))
	last := artifacts[len(artifacts)-1]
	assert.Equal(t, domain.UnknownSource, last.Source)
	assert.Len(t, last.Domains, 3)
}

func TestParseSnapshot_LegacyArray(t *testing.T) {
	t.Parallel()

	snap, err := output.ParseSnapshot([]byte(`["b.example", "a.example", "b.example"]`))
	require.NoError(t, err)
	require.Len(t, snap.Domains, 2)
	assert.Equal(t, "a.example", snap.Domains[0].Domain)
}

func TestParseSnapshot_Invalid(t *testing.T) {
	t.Parallel()

	_, err := output.ParseSnapshot([]byte(`{"last_updated": "yesterday", "domains": []}`))
	require.Error(t, err)
}

func TestPublisher_ObjectKey(t *testing.T) {
	t.Parallel()

	p, err := output.NewPublisher(config.MinIOConfig{
		Endpoint: "localhost:9000",
		Bucket:   "blocklists",
		Prefix:   "/edushield/",
	}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "edushield/blocklists/manifest.json", p.ObjectKey("blocklists/manifest.json"))

	_, err = output.NewPublisher(config.MinIOConfig{Endpoint: "localhost:9000"}, logger.NewNop())
	require.Error(t, err)
}

func TestSplit_UnsafeTagsStayInsideArtifactDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := output.NewWriter(dir, logger.NewNop())

	_, err := w.WriteAll(sampleSnapshot(), nil, domain.Manifest{Files: []domain.ManifestEntry{}})
	require.NoError(t, err)
	before, err := os.ReadFile(w.SnapshotPath())
	require.NoError(t, err)

	snap, err := output.ParseSnapshot([]byte(`[
		{"domain": "m.com", "sources": ["manifest"]},
		{"domain": "t.com", "sources": ["../blocklist"]}
	]`))
	require.NoError(t, err)

	artifacts, manifest := blocklist.Partition(snap, domain.Catalog{"urlhaus"})
	_, err = w.WriteArtifacts(artifacts, manifest)
	require.NoError(t, err)

	after, err := os.ReadFile(w.SnapshotPath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "snapshot must not be overwritten")

	raw, err := os.ReadFile(filepath.Join(dir, "blocklists", "unknown.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"domains": [
		{"domain": "m.com", "sources": ["unknown"]},
		{"domain": "t.com", "sources": ["unknown"]}
	]}`, string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, "blocklists", "manifest.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"files": [{"file": "urlhaus.json", "source": "urlhaus"}]}`, string(raw))
}

func TestWriter_RejectsUnsafeArtifactNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files []string
	}{
		{name: "parent directory", files: []string{"../blocklist.json"}},
		{name: "nested path", files: []string{"a/b.json"}},
		{name: "manifest collision", files: []string{"manifest.json"}},
		{name: "duplicate", files: []string{"ugc.json", "ugc.json"}},
		{name: "empty", files: []string{""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			artifacts := make([]domain.Artifact, 0, len(tc.files))
			for _, f := range tc.files {
				artifacts = append(artifacts, domain.Artifact{Source: "x", File: f, Domains: []domain.DomainRecord{}})
			}

			_, err := output.NewWriter(dir, logger.NewNop()).WriteArtifacts(artifacts, domain.Manifest{})
			require.ErrorIs(t, err, output.ErrUnsafeArtifact)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be written")
		})
	}
}
