package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is a type alias for zap.Field.
type Field = zap.Field

// Field constructors re-exported so callers import only this package.
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Duration = zap.Duration
	Time     = zap.Time
)

// Error adds err under the "error" key.
func Error(err error) Field {
	return zap.Error(err)
}

// Source tags an entry with a feed's source tag.
func Source(tag string) Field {
	return zap.String("source", tag)
}

// Kind tags an entry with a pipeline error kind.
func Kind(kind string) Field {
	return zap.String("error_kind", kind)
}

// Elapsed adds the time since start under "duration".
func Elapsed(start time.Time) Field {
	return zap.Duration("duration", time.Since(start))
}
