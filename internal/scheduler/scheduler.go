// Package scheduler re-runs the pipeline on a cron schedule and, when
// asked, whenever the uploads folder changes.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
)

// RunFunc performs one pipeline run.
type RunFunc func(ctx context.Context) error

// Trigger reasons, used in logs.
const (
	ReasonCron    = "cron"
	ReasonStartup = "startup"
	ReasonUploads = "uploads"
)

// Scheduler serializes runs: a trigger that arrives while a run is in
// progress is dropped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	run  RunFunc
	log  logger.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates a Scheduler for a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 6h".
func New(spec string, run RunFunc, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	return &Scheduler{
		cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		spec: spec,
		run:  run,
		log:  log,
	}, nil
}

// Run schedules runs until ctx is cancelled, then waits for the current
// run to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	entryID, err := s.cron.AddFunc(s.spec, func() { s.Trigger(ctx, ReasonCron) })
	if err != nil {
		return fmt.Errorf("schedule run: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		logger.String("schedule", s.spec),
		logger.Time("next_run", s.cron.Entry(entryID).Next),
	)

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
	return nil
}

// Trigger starts a run in the background unless one is in progress. It
// reports whether a run was started.
func (s *Scheduler) Trigger(ctx context.Context, reason string) bool {
	s.mu.Lock()
	if s.running || ctx.Err() != nil {
		s.mu.Unlock()
		s.log.Debug("Skipping run", logger.String("reason", reason))
		return false
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		start := time.Now()
		s.log.Info("Scheduled run starting", logger.String("reason", reason))
		if err := s.run(ctx); err != nil {
			s.log.Error("Scheduled run failed",
				logger.String("reason", reason),
				logger.Elapsed(start),
				logger.Error(err),
			)
			return
		}
		s.log.Info("Scheduled run finished",
			logger.String("reason", reason),
			logger.Elapsed(start),
		)
	}()

	return true
}

// Wait blocks until no run is in progress.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
