package domain

// Severity is an opaque passthrough label configured per feed. The only
// behaviour attached to it is picking the strongest one when several
// feeds list the same domain.
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityAmber  Severity = "amber"
	SeverityRed    Severity = "red"
)

var severityRank = map[Severity]int{
	SeverityGreen:  2,
	SeverityYellow: 3,
	SeverityAmber:  4,
	SeverityRed:    5,
}

func (s Severity) rank() int {
	if s == "" {
		return 0
	}
	if r, ok := severityRank[s]; ok {
		return r
	}
	return 1
}

// Stronger returns whichever of a and b ranks higher. Unrecognised labels
// rank above empty and below green; ties resolve to the larger string so
// the result never depends on argument order.
func Stronger(a, b Severity) Severity {
	ra, rb := a.rank(), b.rank()
	switch {
	case ra > rb:
		return a
	case rb > ra:
		return b
	case a >= b:
		return a
	default:
		return b
	}
}
