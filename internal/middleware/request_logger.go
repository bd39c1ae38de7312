package middleware

import (
	"context"
	"log/slog"
)

// requestLogger lets inner middleware enrich the logger that Logging uses
// for the completion line.
type requestLogger struct {
	logger *slog.Logger
}

type requestLoggerKey struct{}

func withRequestLogger(ctx context.Context, h *requestLogger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, h)
}

func requestLoggerFromContext(ctx context.Context) *requestLogger {
	h, _ := ctx.Value(requestLoggerKey{}).(*requestLogger)
	return h
}
