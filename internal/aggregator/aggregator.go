// Package aggregator runs the pipeline over every configured feed: fetch,
// parse, normalize and fold into one snapshot.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/blocklist"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/feed"
	"github.com/Mohammedmarzuk17/EduShield/internal/fetcher"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
)

const (
	defaultWorkers      = 4
	defaultFetchTimeout = 30 * time.Second
)

// Discoverer finds a feed link on a landing page.
type Discoverer interface {
	Discover(ctx context.Context, pageURL string) (string, error)
}

// Uploads describes the folder of locally uploaded feeds.
type Uploads struct {
	Dir      string
	Source   domain.SourceTag
	Disabled bool
}

// Options tunes a run.
type Options struct {
	Workers      int
	FetchTimeout time.Duration
	Uploads      Uploads
	// Now stamps the snapshot; defaults to time.Now.
	Now func() time.Time
}

// Aggregator turns feeds into a snapshot.
type Aggregator struct {
	fetcher    fetcher.Fetcher
	discoverer Discoverer
	normalizer normalize.Normalizer
	log        logger.Logger
	opts       Options
}

// New creates an Aggregator. discoverer may be nil, which disables the
// landing-page fallback.
func New(f fetcher.Fetcher, d Discoverer, n normalize.Normalizer, log logger.Logger, opts Options) *Aggregator {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{fetcher: f, discoverer: d, normalizer: n, log: log, opts: opts}
}

// Result is the outcome of a run.
type Result struct {
	Snapshot domain.Snapshot
	Summary  *RunSummary
}

// feedResult is what a worker hands to the fold.
type feedResult struct {
	source     domain.SourceTag
	severity   domain.Severity
	candidates int
	domains    []normalize.Domain
	errors     map[domain.ErrorKind]int
}

// Run processes feeds plus every file in the uploads folder. Failed feeds
// contribute nothing and are reported in the summary; the run itself only
// fails when ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context, feeds []feed.Spec) (*Result, error) {
	log := logger.FromContextOr(ctx, a.log)
	summary := newRunSummary(a.opts.Now())
	specs := append(slices.Clone(feeds), a.uploadSpecs(log, summary)...)

	log.Info("Starting aggregation run",
		logger.Int("feeds", len(specs)),
		logger.Int("workers", a.opts.Workers),
	)

	// Workers only produce; this goroutine is the single writer of the
	// mapping and the summary.
	results := make(chan feedResult)
	acc := blocklist.NewAccumulator()
	folded := make(chan struct{})
	go func() {
		defer close(folded)
		for r := range results {
			acc.Add(r.source, r.severity, r.domains)
			summary.record(r)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for _, spec := range specs {
		g.Go(func() error {
			r := a.processFeed(gctx, spec)
			select {
			case results <- r:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	waitErr := g.Wait()
	close(results)
	<-folded

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregation cancelled: %w", err)
	}
	if waitErr != nil {
		return nil, waitErr
	}

	snapshot := blocklist.Build(acc.Mapping(), a.opts.Now())
	summary.FinishedAt = a.opts.Now()
	summary.Domains = len(snapshot.Domains)

	log.Info("Aggregation run complete",
		logger.Int("domains", summary.Domains),
		logger.Int("fetch_unavailable", summary.ErrorCount(domain.KindFetchUnavailable)),
		logger.Int("decode_errors", summary.ErrorCount(domain.KindDecodeError)),
		logger.Duration("duration", summary.Duration()),
	)

	return &Result{Snapshot: snapshot, Summary: summary}, nil
}

// uploadSpecs lists the uploads folder as local feeds. A missing folder is
// an unavailable source.
func (a *Aggregator) uploadSpecs(log logger.Logger, summary *RunSummary) []feed.Spec {
	up := a.opts.Uploads
	if up.Disabled || up.Dir == "" {
		return nil
	}
	source := up.Source
	if source == "" {
		source = domain.NewSourceTag("custom")
	}

	entries, err := os.ReadDir(up.Dir)
	if err != nil {
		level := log.Warn
		if errors.Is(err, os.ErrNotExist) {
			level = log.Debug
		}
		level("Uploads folder unavailable",
			logger.Source(source.String()),
			logger.Kind(string(domain.KindFetchUnavailable)),
			logger.String("dir", up.Dir),
			logger.Error(err),
		)
		summary.record(feedResult{
			source: source,
			errors: map[domain.ErrorKind]int{domain.KindFetchUnavailable: 1},
		})
		return nil
	}

	var specs []feed.Spec
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		specs = append(specs, feed.Spec{Source: source, Path: filepath.Join(up.Dir, e.Name())})
	}
	return specs
}

func (a *Aggregator) processFeed(ctx context.Context, spec feed.Spec) feedResult {
	start := time.Now()
	res := feedResult{
		source:   spec.Source,
		severity: spec.Severity,
		errors:   make(map[domain.ErrorKind]int),
	}
	log := logger.FromContextOr(ctx, a.log).With(
		logger.Source(spec.Source.String()),
		logger.String("location", spec.Location()),
	)
	normalizer := a.normalizer.WithPolicy(spec.FreeText)

	resp, err := a.fetch(ctx, spec.Location())
	if err != nil {
		a.logFetchError(log, err)
		res.errors[domain.KindFetchUnavailable]++
		return res
	}

	a.consume(log, spec, resp, normalizer, &res)

	if len(res.domains) == 0 && spec.Discover && !spec.IsLocal() && a.discoverer != nil {
		a.discover(ctx, log, spec, normalizer, &res)
	}

	log.Info("Feed processed",
		logger.Int("candidates", res.candidates),
		logger.Int("accepted", len(res.domains)),
		logger.Int("guessed", res.errors[domain.KindHeuristicGuess]),
		logger.Int("rejected", res.errors[domain.KindNormalizationReject]),
		logger.Elapsed(start),
	)

	return res
}

// fetch bounds a single download by the fetch timeout.
func (a *Aggregator) fetch(ctx context.Context, location string) (*fetcher.Response, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
	defer cancel()
	return a.fetcher.Fetch(fetchCtx, location)
}

// consume parses a fetched body and normalizes every candidate into res.
func (a *Aggregator) consume(
	log logger.Logger,
	spec feed.Spec,
	resp *fetcher.Response,
	normalizer normalize.Normalizer,
	res *feedResult,
) {
	format := spec.Format
	if format == "" {
		format = feed.InferFormat(resp.Location, resp.ContentType)
	}
	parser := feed.ParserFor(spec, format, resp.ContentType, resp.Location)

	for candidate, err := range parser.Parse(resp.Body) {
		if err != nil {
			res.errors[domain.KindDecodeError]++
			log.Warn("Feed body could not be fully decoded",
				logger.Kind(string(domain.KindDecodeError)),
				logger.String("format", string(format)),
				logger.Error(err),
			)
			break
		}

		res.candidates++
		d, ok := normalizer.Normalize(candidate)
		if !ok {
			res.errors[domain.KindNormalizationReject]++
			continue
		}
		if d.Unverified {
			res.errors[domain.KindHeuristicGuess]++
		}
		res.domains = append(res.domains, d)
	}
}

// discover retries a feed that produced no domains through the first
// feed-like link on its landing page. The discovered link's format is
// inferred.
func (a *Aggregator) discover(
	ctx context.Context,
	log logger.Logger,
	spec feed.Spec,
	normalizer normalize.Normalizer,
	res *feedResult,
) {
	discoverCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
	link, err := a.discoverer.Discover(discoverCtx, spec.URL)
	cancel()
	if err != nil {
		log.Info("Feed discovery found nothing", logger.Error(err))
		return
	}

	resp, err := a.fetch(ctx, link)
	if err != nil {
		a.logFetchError(log.With(logger.String("discovered_url", link)), err)
		res.errors[domain.KindFetchUnavailable]++
		return
	}

	log.Info("Using discovered feed", logger.String("discovered_url", link))

	discovered := spec
	discovered.URL = link
	discovered.Format = ""
	a.consume(log, discovered, resp, normalizer, res)
}

func (a *Aggregator) logFetchError(log logger.Logger, err error) {
	fields := []logger.Field{
		logger.Kind(string(domain.KindFetchUnavailable)),
		logger.Error(err),
	}

	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		fields = append(fields, logger.String("error_type", string(fe.Type)))
		if fe.Level == fetcher.LevelError {
			log.Error("Feed unavailable", fields...)
			return
		}
	}
	log.Warn("Feed unavailable", fields...)
}
