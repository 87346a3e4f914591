package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	cfg := testConfig(t, srv)
	cfg.Metrics.TextfilePath = ""

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	h := p.StatusHandler()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `blocklist_domains 3`)
	assert.Contains(t, rec.Body.String(), `blocklist_source_accepted{source="urlhaus"} 2`)

	finished, lastErr := p.LastRun()
	assert.False(t, finished.IsZero())
	assert.NoError(t, lastErr)
}

func TestStatusHandler_FailedRunIsNotReady(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t)
	cfg := testConfig(t, srv)
	require.NoError(t, os.WriteFile(cfg.OutputDir, []byte("x"), 0o644))

	p, err := bootstrap.NewPipeline(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)

	rec := get(t, p.StatusHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "last run failed")
}
