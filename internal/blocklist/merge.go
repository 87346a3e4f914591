// Package blocklist folds attributed domains into a snapshot and splits
// the snapshot into per-source artifacts.
package blocklist

import (
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
)

// Mapping is the in-progress blocklist keyed by canonical domain.
type Mapping map[string]domain.DomainRecord

// Observation is one feed listing one domain.
type Observation struct {
	Source   domain.SourceTag
	Domain   normalize.Domain
	Severity domain.Severity
}

// Merge records obs in m and returns m. A nil m is allocated. Merging is
// idempotent and order-independent: sources are a set union, a record
// stays unverified only while every observation was a guess, and the
// strongest severity wins.
func Merge(m Mapping, obs Observation) Mapping {
	if m == nil {
		m = make(Mapping)
	}
	if obs.Domain.Name == "" {
		return m
	}

	source := obs.Source
	if !source.Valid() {
		source = domain.UnknownSource
	}

	rec, ok := m[obs.Domain.Name]
	if !ok {
		m[obs.Domain.Name] = domain.DomainRecord{
			Domain:     obs.Domain.Name,
			Sources:    []domain.SourceTag{source},
			Unverified: obs.Domain.Unverified,
			Severity:   obs.Severity,
		}
		return m
	}

	rec = rec.WithSource(source)
	rec.Unverified = rec.Unverified && obs.Domain.Unverified
	rec.Severity = domain.Stronger(rec.Severity, obs.Severity)
	m[obs.Domain.Name] = rec

	return m
}

// Fold merges every observation into a fresh mapping.
func Fold(observations []Observation) Mapping {
	m := make(Mapping, len(observations))
	for _, obs := range observations {
		m = Merge(m, obs)
	}
	return m
}

// Accumulator owns a mapping for the duration of a run. It is not safe
// for concurrent use; a single goroutine feeds it.
type Accumulator struct {
	mapping Mapping
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{mapping: make(Mapping)}
}

// Add merges every domain a feed produced under its source and severity.
func (a *Accumulator) Add(source domain.SourceTag, severity domain.Severity, domains []normalize.Domain) {
	for _, d := range domains {
		a.mapping = Merge(a.mapping, Observation{Source: source, Domain: d, Severity: severity})
	}
}

// Len is the number of distinct domains seen so far.
func (a *Accumulator) Len() int {
	return len(a.mapping)
}

// Mapping returns the accumulated mapping. The accumulator must not be
// used afterwards.
func (a *Accumulator) Mapping() Mapping {
	return a.mapping
}
