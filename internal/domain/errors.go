package domain

// ErrorKind classifies the non-fatal conditions a run reports per source.
type ErrorKind string

const (
	// KindFetchUnavailable means the feed could not be fetched or read.
	KindFetchUnavailable ErrorKind = "fetch_unavailable"
	// KindDecodeError means the feed body was malformed; candidates decoded
	// before the failure are kept.
	KindDecodeError ErrorKind = "decode_error"
	// KindNormalizationReject counts candidates that did not look like a
	// domain. Never logged as an error.
	KindNormalizationReject ErrorKind = "normalization_reject"
	// KindHeuristicGuess counts domains derived from free text.
	KindHeuristicGuess ErrorKind = "heuristic_guess"
)
