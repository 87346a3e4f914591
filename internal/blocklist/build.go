package blocklist

import (
	"cmp"
	"slices"
	"time"

	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// Build materializes m as a snapshot. Records are sorted by domain and
// each record's sources are sorted, so equal inputs produce identical
// snapshots. generatedAt is stored in UTC at second precision.
func Build(m Mapping, generatedAt time.Time) domain.Snapshot {
	records := make([]domain.DomainRecord, 0, len(m))
	for _, rec := range m {
		rec.Sources = slices.Clone(rec.Sources)
		slices.Sort(rec.Sources)
		rec.Sources = slices.Compact(rec.Sources)
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b domain.DomainRecord) int {
		return cmp.Compare(a.Domain, b.Domain)
	})

	return domain.Snapshot{
		GeneratedAt: generatedAt.UTC().Truncate(time.Second),
		Domains:     records,
	}
}
