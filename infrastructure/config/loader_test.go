package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/config"
)

type nested struct {
	Bucket string `env:"TEST_LOADER_BUCKET" yaml:"bucket"`
}

type sample struct {
	Name    string        `env:"TEST_LOADER_NAME"    yaml:"name"`
	Timeout time.Duration `env:"TEST_LOADER_TIMEOUT" yaml:"timeout"`
	Workers int           `env:"TEST_LOADER_WORKERS" yaml:"workers"`
	Catalog []string      `env:"TEST_LOADER_CATALOG" yaml:"catalog"`
	Enabled bool          `env:"TEST_LOADER_ENABLED" yaml:"enabled"`
	Store   nested        `yaml:"store"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, "name: from-file\ntimeout: 5s\nworkers: 2\ncatalog: [a, b]\nstore:\n  bucket: one\n")

	t.Setenv("TEST_LOADER_WORKERS", "8")
	t.Setenv("TEST_LOADER_CATALOG", "urlhaus, openphish")
	t.Setenv("TEST_LOADER_ENABLED", "yes")
	t.Setenv("TEST_LOADER_BUCKET", "two")

	cfg, err := config.Load[sample](path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"urlhaus", "openphish"}, cfg.Catalog)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "two", cfg.Store.Bucket)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load[sample](filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestLoadOptional_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("TEST_LOADER_TIMEOUT", "90s")

	cfg, err := config.LoadOptional[sample](filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestLoadWithDefaults_EnvBeatsDefaults(t *testing.T) {
	path := writeConfig(t, "name: x\n")
	t.Setenv("TEST_LOADER_WORKERS", "3")

	cfg, err := config.LoadWithDefaults(path, false, func(s *sample) {
		s.Workers = 10
		s.Name = "default"
	})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "default", cfg.Name)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	path := writeConfig(t, "workers: 2\n")
	t.Setenv("TEST_LOADER_WORKERS", "many")
	t.Setenv("TEST_LOADER_TIMEOUT", "soon")

	_, err := config.Load[sample](path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_LOADER_WORKERS")
	assert.Contains(t, err.Error(), "TEST_LOADER_TIMEOUT")
}

func TestLoad_EmptyFileAndOffSwitch(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("TEST_LOADER_ENABLED", "off")

	cfg, err := config.Load[sample](path)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Name)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/blocklist.yml")
	assert.Equal(t, "/etc/blocklist.yml", config.GetConfigPath("config.yml"))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "name: [unterminated\n")

	_, err := config.Load[sample](path)
	require.Error(t, err)
}

func TestValidators(t *testing.T) {
	t.Parallel()

	var vErr *config.ValidationError

	require.ErrorAs(t, config.ValidateRequired("output_dir", "  "), &vErr)
	assert.Equal(t, "output_dir", vErr.Field)

	require.NoError(t, config.ValidateOneOf("free_text", "", "reject", "guess"))
	require.Error(t, config.ValidateOneOf("free_text", "maybe", "reject", "guess"))
	require.Error(t, config.ValidatePositive("workers", 0))
	require.NoError(t, config.ValidateHTTPURL("url", "https://urlhaus.abuse.ch/downloads/text/"))
	require.Error(t, config.ValidateHTTPURL("url", "ftp://example.com"))
	require.Error(t, config.ValidateLogLevel("loud"))
	require.NoError(t, config.ValidateLogFormat("console"))
}
