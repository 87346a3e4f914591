// Package metrics exports run statistics in the Prometheus text format.
//
// The aggregator is a batch job, so metrics are written to a file for the
// node exporter textfile collector rather than served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Mohammedmarzuk17/EduShield/internal/aggregator"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

const namespace = "blocklist"

// Run outcomes.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the aggregator collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	LastRun       prometheus.Gauge
	RunDuration   prometheus.Gauge
	Domains       prometheus.Gauge
	Candidates    *prometheus.GaugeVec
	Accepted      *prometheus.GaugeVec
	SourceErrors  *prometheus.GaugeVec
	ArtifactSizes *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Aggregation runs by result.",
		}, []string{"result"}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last successful run finished.",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last successful run.",
		}),
		Domains: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "domains",
			Help:      "Distinct domains in the last snapshot.",
		}),
		Candidates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_candidates",
			Help:      "Raw candidates read per source in the last run.",
		}, []string{"source"}),
		Accepted: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_accepted",
			Help:      "Domains accepted per source in the last run.",
		}, []string{"source"}),
		SourceErrors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_errors",
			Help:      "Non-fatal conditions per source and kind in the last run.",
		}, []string{"source", "kind"}),
		ArtifactSizes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_domains",
			Help:      "Records per published artifact.",
		}, []string{"source"}),
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun replaces the per-run gauges with the outcome of a successful
// run.
func (m *Metrics) RecordRun(summary *aggregator.RunSummary, artifacts []domain.Artifact) {
	m.Runs.WithLabelValues(ResultSuccess).Inc()
	m.LastRun.Set(float64(summary.FinishedAt.Unix()))
	m.RunDuration.Set(summary.Duration().Seconds())
	m.Domains.Set(float64(summary.Domains))

	m.Candidates.Reset()
	m.Accepted.Reset()
	m.SourceErrors.Reset()
	for _, stats := range summary.Stats() {
		source := stats.Source.String()
		m.Candidates.WithLabelValues(source).Set(float64(stats.Candidates))
		m.Accepted.WithLabelValues(source).Set(float64(stats.Accepted))
		for kind, n := range stats.Errors {
			m.SourceErrors.WithLabelValues(source, string(kind)).Set(float64(n))
		}
	}

	m.ArtifactSizes.Reset()
	for _, a := range artifacts {
		m.ArtifactSizes.WithLabelValues(a.Source.String()).Set(float64(len(a.Domains)))
	}
}

// RecordFailure counts a run that did not publish.
func (m *Metrics) RecordFailure() {
	m.Runs.WithLabelValues(ResultFailure).Inc()
}

// WriteTextfile atomically writes every metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
