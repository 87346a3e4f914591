package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/Mohammedmarzuk17/EduShield/infrastructure/events"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	infraredis "github.com/Mohammedmarzuk17/EduShield/infrastructure/redis"
	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/feed"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/urlhaus.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1,http://bad.com/x.exe\n2,https://drop.example/payload\n"))
	})
	mux.HandleFunc("/openphish", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("https://bad.com/login\n"))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	t.Helper()

	dir := t.TempDir()
	uploads := filepath.Join(dir, "custom_feeds")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "list.txt"), []byte("custom.example\n"), 0o644))

	return &config.Config{
		Catalog: []string{"urlhaus", "openphish", "ugc", "aicte", "custom"},
		Feeds: []feed.Spec{
			{Source: "urlhaus", URL: srv.URL + "/urlhaus.csv", Severity: domain.SeverityRed},
			{Source: "openphish", URL: srv.URL + "/openphish", Format: feed.FormatText},
			{Source: "ugc", URL: srv.URL + "/down", Format: feed.FormatHTML},
		},
		FetchTimeout: time.Second,
		Workers:      2,
		FreeText:     feed.FreeTextReject,
		OutputDir:    filepath.Join(dir, "out"),
		Uploads:      config.UploadsConfig{Dir: uploads, Source: "custom"},
		Metrics:      config.MetricsConfig{TextfilePath: filepath.Join(dir, "blocklist.prom")},
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(t, srv)
	cfg.Redis = infraredis.Config{Enabled: true, Address: mr.Addr()}

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.PublishError())

	names := make([]string, 0, len(report.Snapshot.Domains))
	for _, r := range report.Snapshot.Domains {
		names = append(names, r.Domain)
	}
	assert.Equal(t, []string{"bad.com", "custom.example", "drop.example"}, names)
	assert.Equal(t, 1, report.Summary.ErrorCount(domain.KindFetchUnavailable))

	var snapshot domain.Snapshot
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklist.json"), &snapshot)
	require.Len(t, snapshot.Domains, 3)
	assert.Equal(t, []domain.SourceTag{"openphish", "urlhaus"}, snapshot.Domains[0].Sources)

	var manifest domain.Manifest
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklists", "manifest.json"), &manifest)
	require.Len(t, manifest.Files, 5)
	assert.Equal(t, "urlhaus.json", manifest.Files[0].File)

	var ugc domain.Artifact
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklists", "ugc.json"), &ugc)
	assert.Empty(t, ugc.Domains)
	assert.NotNil(t, ugc.Domains)

	var custom domain.Artifact
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklists", "custom.json"), &custom)
	require.Len(t, custom.Domains, 1)
	assert.Equal(t, "custom.example", custom.Domains[0].Domain)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	entries, err := client.XRange(context.Background(), infraevents.StreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	prom, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `blocklist_domains 3`)
}

func TestPipeline_RunFailsOnUnwritableOutput(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	cfg := testConfig(t, srv)

	// A regular file where the output directory should be.
	require.NoError(t, os.WriteFile(cfg.OutputDir, []byte("x"), 0o644))

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)

	prom, readErr := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, readErr)
	assert.Contains(t, string(prom), `blocklist_runs_total{result="failure"} 1`)
}

func TestPipeline_RedisUnavailable(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	cfg := testConfig(t, srv)
	cfg.Redis = infraredis.Config{Enabled: true, Address: "127.0.0.1:1"}

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NoError(t, report.PublishError())
}

func TestPipeline_Split(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	cfg := testConfig(t, srv)

	snapshotPath := filepath.Join(t.TempDir(), "blocklist.json")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(`{
  "last_updated": "2026-02-03T04:05:06Z",
  "domains": [
    {"domain": "a.example", "sources": ["ugc"]},
    {"domain": "b.example", "sources": ["aicte", "extra"]},
    {"domain": "c.example"}
  ]
}`), 0o644))

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	report, err := p.Split(context.Background(), snapshotPath)
	require.NoError(t, err)
	assert.Nil(t, report.Summary)

	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, "blocklist.json"))
	assert.True(t, os.IsNotExist(statErr))

	var extra domain.Artifact
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklists", "extra.json"), &extra)
	require.Len(t, extra.Domains, 1)
	assert.Equal(t, "b.example", extra.Domains[0].Domain)

	var unknown domain.Artifact
	readJSON(t, filepath.Join(cfg.OutputDir, "blocklists", "unknown.json"), &unknown)
	require.Len(t, unknown.Domains, 1)
	assert.Equal(t, "c.example", unknown.Domains[0].Domain)
}

func TestPipeline_SplitMissingSnapshot(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	p, err := bootstrap.NewPipeline(context.Background(), testConfig(t, srv), logger.NewNop())
	require.NoError(t, err)

	_, err = p.Split(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadConfig_Debug(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	cfg, err := bootstrap.LoadConfig(path, true)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Workers)

	log, err := bootstrap.CreateLogger(cfg, "test")
	require.NoError(t, err)
	assert.NotNil(t, log)
}
