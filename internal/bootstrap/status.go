package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/health"
)

// HealthChecker reports the last run and every enabled dependency.
func (p *Pipeline) HealthChecker() *health.Checker {
	checker := health.NewChecker()

	checker.Register("last_run", func(context.Context) error {
		if _, err := p.LastRun(); err != nil {
			return fmt.Errorf("last run failed: %w", err)
		}
		return nil
	})

	if p.redis != nil {
		checker.Register("redis", func(ctx context.Context) error {
			return p.redis.Ping(ctx).Err()
		})
	}

	if p.storage != nil {
		checker.Register("minio", p.storage.CheckBucket)
	}

	return checker
}

// StatusHandler serves /metrics, /healthz and /readyz.
func (p *Pipeline) StatusHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(p.metrics.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("GET /healthz", health.LivenessHandler())
	mux.Handle("GET /readyz", p.HealthChecker().Handler())
	return mux
}
