package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ctxKey is the context key type for logger storage.
type ctxKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in the context, or the default
// logger if none is attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}
