package logger

import (
	"log/slog"
	"time"
)

// LogRequest logs one round trip to the authority.
func LogRequest(method, path string, status int, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "api"),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Request failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Request completed", attrs...)
	}
}

// LogAuth logs session lifecycle events
func LogAuth(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "auth")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogMarket logs marketplace events
func LogMarket(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "market")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogTrade logs trade-offer lifecycle events
func LogTrade(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "trade")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
