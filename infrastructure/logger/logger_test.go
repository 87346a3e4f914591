package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
)

func TestNew_WritesJSONWithFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	l, err := logger.New(logger.Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.With(logger.String("run_id", "r1")).Warn("Feed unavailable",
		logger.Source("urlhaus"),
		logger.Kind("fetch_unavailable"),
		logger.Elapsed(time.Now()),
	)
	l.Debug("filtered")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"Feed unavailable"`)
	assert.Contains(t, lines[0], `"run_id":"r1"`)
	assert.Contains(t, lines[0], `"source":"urlhaus"`)
	assert.Contains(t, lines[0], `"error_kind":"fetch_unavailable"`)
	assert.Contains(t, lines[0], `"duration":`)
}

func TestNew_DoesNotSampleRepeatedEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	l, err := logger.New(logger.Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	const feeds = 250
	for range feeds {
		l.Info("Feed processed", logger.Source("ugc"))
	}
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), feeds)
}

func TestNew_AcceptsWarning(t *testing.T) {
	t.Parallel()

	_, err := logger.New(logger.Config{Level: "WARNING", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := logger.New(logger.Config{Level: "loud"})
	require.Error(t, err)

	_, err = logger.New(logger.Config{Format: "xml"})
	require.Error(t, err)
}

func TestNewNop(t *testing.T) {
	t.Parallel()

	l := logger.NewNop()
	l.Error("discarded", logger.Int("n", 1))
	assert.NotNil(t, l.With(logger.String("k", "v")))
	assert.NoError(t, l.Sync())
}
