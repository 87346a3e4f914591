package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	infrahttp "github.com/Mohammedmarzuk17/EduShield/infrastructure/http"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	infraredis "github.com/Mohammedmarzuk17/EduShield/infrastructure/redis"
	"github.com/Mohammedmarzuk17/EduShield/internal/aggregator"
	"github.com/Mohammedmarzuk17/EduShield/internal/blocklist"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
	"github.com/Mohammedmarzuk17/EduShield/internal/discovery"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/events"
	"github.com/Mohammedmarzuk17/EduShield/internal/fetcher"
	"github.com/Mohammedmarzuk17/EduShield/internal/metrics"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
	"github.com/Mohammedmarzuk17/EduShield/internal/output"
)

// publishTimeout bounds the MinIO and Redis steps after a run.
const publishTimeout = 2 * time.Minute

// Pipeline is a fully wired aggregator.
type Pipeline struct {
	cfg        *config.Config
	log        logger.Logger
	aggregator *aggregator.Aggregator
	writer     *output.Writer
	storage    *output.Publisher
	events     *events.Publisher
	metrics    *metrics.Metrics
	redis      *goredis.Client

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// Report describes a finished run.
type Report struct {
	RunID     uuid.UUID
	Snapshot  domain.Snapshot
	Artifacts []domain.Artifact
	Manifest  domain.Manifest
	Files     []output.File
	// Summary is nil for split runs.
	Summary *aggregator.RunSummary
	// PublishErrors collects MinIO and Redis failures. They do not fail
	// the run; the files on disk are authoritative.
	PublishErrors []error
}

// NewPipeline builds every component the configuration enables. Redis
// failures only disable run events; a MinIO bucket that cannot be checked
// is an error.
func NewPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	client := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	router := fetcher.Router{
		HTTP: fetcher.NewHTTPFetcher(client, cfg.MaxBodyBytes),
		File: fetcher.NewFileFetcher(cfg.MaxBodyBytes),
	}

	normalizer := normalize.New(cfg.FreeText, normalize.SuffixGuesser{Suffix: cfg.GuessSuffix})

	p := &Pipeline{
		cfg: cfg,
		log: log,
		aggregator: aggregator.New(router, discovery.New(router, log), normalizer, log, aggregator.Options{
			Workers:      cfg.Workers,
			FetchTimeout: cfg.FetchTimeout,
			Uploads: aggregator.Uploads{
				Dir:      cfg.Uploads.Dir,
				Source:   domain.NewSourceTag(cfg.Uploads.Source),
				Disabled: cfg.Uploads.Disabled,
			},
		}),
		writer:  output.NewWriter(cfg.OutputDir, log),
		metrics: metrics.New(),
	}

	if cfg.MinIO.Enabled {
		storage, err := output.NewPublisher(cfg.MinIO, log)
		if err != nil {
			return nil, err
		}
		if err = storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		p.storage = storage
	}

	if cfg.Redis.Enabled {
		redisClient, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, run events disabled", logger.Error(err))
		} else {
			p.redis = redisClient
			p.events = events.NewPublisher(redisClient, log)
		}
	}

	return p, nil
}

// Close releases connections.
func (p *Pipeline) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}

// Run aggregates every feed, writes the snapshot, artifacts and manifest,
// and then publishes them.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := uuid.New()
	ctx = logger.WithContext(ctx, p.log.With(logger.String("run_id", runID.String())))

	res, err := p.aggregator.Run(ctx, p.cfg.Feeds)
	if err != nil {
		p.recordFailure(err)
		return nil, err
	}

	artifacts, manifest := blocklist.Partition(res.Snapshot, p.cfg.SourceCatalog())

	files, err := p.writer.WriteAll(res.Snapshot, artifacts, manifest)
	if err != nil {
		err = fmt.Errorf("write output: %w", err)
		p.recordFailure(err)
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		Snapshot:  res.Snapshot,
		Artifacts: artifacts,
		Manifest:  manifest,
		Files:     files,
		Summary:   res.Summary,
	}

	p.publish(ctx, report)

	p.metrics.RecordRun(res.Summary, artifacts)
	p.writeMetrics()
	p.setLastRun(nil)

	p.log.Info("Blocklist published",
		logger.String("run_id", report.RunID.String()),
		logger.Int("domains", len(res.Snapshot.Domains)),
		logger.Int("artifacts", len(artifacts)),
		logger.String("output_dir", p.writer.Dir()),
	)

	return report, nil
}

// Split re-partitions an existing snapshot file into artifacts and a
// manifest without fetching anything.
func (p *Pipeline) Split(ctx context.Context, snapshotPath string) (*Report, error) {
	snapshot, err := output.ReadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}

	artifacts, manifest := blocklist.Partition(snapshot, p.cfg.SourceCatalog())

	files, err := p.writer.WriteArtifacts(artifacts, manifest)
	if err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}

	report := &Report{
		RunID:     uuid.New(),
		Snapshot:  snapshot,
		Artifacts: artifacts,
		Manifest:  manifest,
		Files:     files,
	}
	p.publish(ctx, report)

	p.log.Info("Snapshot split",
		logger.String("snapshot", snapshotPath),
		logger.Int("domains", len(snapshot.Domains)),
		logger.Int("artifacts", len(artifacts)),
	)

	return report, nil
}

func (p *Pipeline) publish(ctx context.Context, report *Report) {
	if p.storage == nil && p.events == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if p.storage != nil {
		if err := p.storage.Publish(publishCtx, report.Files); err != nil {
			p.log.Error("Failed to publish to MinIO", logger.Error(err))
			report.PublishErrors = append(report.PublishErrors, err)
		}
	}

	if p.events != nil {
		event := events.NewPublishedEvent(report.RunID, report.Snapshot, report.Artifacts)
		if err := p.events.Publish(publishCtx, event); err != nil {
			report.PublishErrors = append(report.PublishErrors, err)
		}
	}
}

func (p *Pipeline) recordFailure(err error) {
	p.metrics.RecordFailure()
	p.writeMetrics()
	p.setLastRun(err)
}

func (p *Pipeline) writeMetrics() {
	if p.cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.TextfilePath); err != nil {
		p.log.Warn("Failed to write metrics", logger.Error(err))
	}
}

func (p *Pipeline) setLastRun(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRun = time.Now()
	p.lastErr = err
}

// LastRun returns when the last run finished and its error. The time is
// zero before the first run.
func (p *Pipeline) LastRun() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun, p.lastErr
}

// PublishError joins the report's publish failures.
func (r *Report) PublishError() error {
	return errors.Join(r.PublishErrors...)
}
