package logger

import "context"

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l. A pipeline run stores its
// run-scoped logger this way so every feed worker logs the run ID.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContextOr returns the logger stored by WithContext, else def, else
// a no-op logger.
func FromContextOr(ctx context.Context, def Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	if def != nil {
		return def
	}
	return NewNop()
}
