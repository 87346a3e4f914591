package aggregator

import (
	"maps"
	"slices"
	"time"

	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// SourceStats counts what one source contributed to a run. A source can be
// fed by several feeds; their counts add up.
type SourceStats struct {
	Source     domain.SourceTag
	Feeds      int
	Candidates int
	Accepted   int
	Errors     map[domain.ErrorKind]int
}

// Guessed is the number of domains derived from free text.
func (s SourceStats) Guessed() int {
	return s.Errors[domain.KindHeuristicGuess]
}

// Rejected is the number of candidates that were not domains.
func (s SourceStats) Rejected() int {
	return s.Errors[domain.KindNormalizationReject]
}

// RunSummary reports a run per source.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	// Domains is the number of distinct domains in the snapshot.
	Domains int
	Sources map[domain.SourceTag]*SourceStats
}

func newRunSummary(startedAt time.Time) *RunSummary {
	return &RunSummary{StartedAt: startedAt, Sources: make(map[domain.SourceTag]*SourceStats)}
}

func (s *RunSummary) record(r feedResult) {
	stats, ok := s.Sources[r.source]
	if !ok {
		stats = &SourceStats{Source: r.source, Errors: make(map[domain.ErrorKind]int)}
		s.Sources[r.source] = stats
	}

	stats.Feeds++
	stats.Candidates += r.candidates
	stats.Accepted += len(r.domains)
	for kind, n := range r.errors {
		stats.Errors[kind] += n
	}
}

// Duration is the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Stats returns per-source stats ordered by source tag.
func (s *RunSummary) Stats() []SourceStats {
	out := make([]SourceStats, 0, len(s.Sources))
	for _, tag := range slices.Sorted(maps.Keys(s.Sources)) {
		out = append(out, *s.Sources[tag])
	}
	return out
}

// ErrorCount totals one kind across sources.
func (s *RunSummary) ErrorCount(kind domain.ErrorKind) int {
	total := 0
	for _, stats := range s.Sources {
		total += stats.Errors[kind]
	}
	return total
}
