package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger. A nil logger stores the
// default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the default.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return logger
		}
	}
	return Default()
}

// WithField returns a copy of ctx whose logger adds key=value to every entry.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithUser tags entries with the calling user.
func WithUser(ctx context.Context, user string) context.Context {
	return WithField(ctx, "user", user)
}

// WithSource tags entries with the external source qualified name.
func WithSource(ctx context.Context, source string) context.Context {
	return WithField(ctx, "source", source)
}

// WithOperation tags entries with the operation being performed.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
