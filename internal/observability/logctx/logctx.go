// Package logctx carries the request-scoped logger on a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type loggerKey struct{}

// With stores the provided logger on the context for request-scoped logging.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From retrieves a logger from the context if present.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context logger when available, otherwise the fallback,
// otherwise a logger that discards.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return observability.NopLogger()
}

// Enrich stores on ctx a logger derived from the current one (or base) with
// fields appended.
func Enrich(ctx context.Context, base observability.Logger, fields ...observability.Field) context.Context {
	return With(ctx, FromOr(ctx, base).With(fields...))
}
