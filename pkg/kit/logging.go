package kit

import (
	"context"
	"log/slog"
	"time"
)

// Logging logs each call of the wrapped endpoint under name, with the
// transport and request ID found in the context. Failures log at warn
// level, successes at debug.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)

			attrs := []slog.Attr{
				slog.String("endpoint", name),
				slog.String("transport", GetTransport(ctx)),
				slog.Duration("duration", time.Since(start)),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelWarn, "endpoint failed", attrs...)
				return resp, err
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "endpoint served", attrs...)
			return resp, nil
		}
	}
}
