package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/Mohammedmarzuk17/EduShield/infrastructure/config"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/feed"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCatalog, cfg.SourceCatalog())
	assert.Equal(t, config.DefaultFeeds(), cfg.Feeds)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, feed.FreeTextReject, cfg.FreeText)
	assert.Equal(t, ".edu.in", cfg.GuessSuffix)
	assert.Equal(t, "custom_feeds", cfg.Uploads.Dir)
	assert.Equal(t, "custom", cfg.Uploads.Source)
	assert.Equal(t, "0 */6 * * *", cfg.Schedule.Cron)
	assert.False(t, cfg.MinIO.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
catalog: [URLhaus, openphish, urlhaus]
fetch_timeout: 5s
workers: 2
output_dir: /tmp/out
feeds:
  - source: URLhaus
    url: https://urlhaus.abuse.ch/downloads/csv_recent/
    severity: RED
  - source: aicte
    path: reports/aicte.pdf
    free_text: guess
`)
	t.Setenv("BLOCKLIST_WORKERS", "8")
	t.Setenv("BLOCKLIST_FREE_TEXT", "guess")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.Catalog{"urlhaus", "openphish"}, cfg.SourceCatalog())
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, feed.FreeTextGuess, cfg.FreeText)
	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, domain.SourceTag("urlhaus"), cfg.Feeds[0].Source)
	assert.Equal(t, domain.SeverityRed, cfg.Feeds[0].Severity)
	assert.True(t, cfg.Feeds[1].IsLocal())
}

func TestLoad_InvalidFeeds(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - source: ""
    url: ftp://example.org/list
  - source: a
    url: https://example.org/list
    path: local.txt
  - source: b
    format: docx
  - source: c
    path: local.txt
    discover: true
`)

	_, err := config.Load(path)
	require.Error(t, err)

	var verr *infraconfig.ValidationError
	require.ErrorAs(t, err, &verr)

	msg := err.Error()
	assert.Contains(t, msg, "feeds[0].source")
	assert.Contains(t, msg, "feeds[0].url")
	assert.Contains(t, msg, "set either url or path")
	assert.Contains(t, msg, "feeds[2].format")
	assert.Contains(t, msg, "feeds[2]: url or path is required")
	assert.Contains(t, msg, "feeds[3].discover")
}

func TestValidate_RunSettings(t *testing.T) {
	path := writeConfig(t, `
workers: -1
free_text: maybe
minio:
  enabled: true
  bucket: " "
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "free_text")
	assert.Contains(t, err.Error(), "minio.bucket")
}

func TestValidate_SourceTagsMustNameFiles(t *testing.T) {
	path := writeConfig(t, `
catalog: [urlhaus, manifest]
uploads:
  source: ../blocklist
feeds:
  - source: ../../etc/passwd
    url: https://example.com/feed.txt
  - source: OpenPhish
    url: https://example.com/phish.txt
`)

	_, err := config.Load(path)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "catalog[1]")
	assert.Contains(t, msg, "uploads.source")
	assert.Contains(t, msg, "feeds[0].source")
	assert.NotContains(t, msg, "catalog[0]")
	assert.NotContains(t, msg, "feeds[1].source")
}
