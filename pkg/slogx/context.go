package slogx

import (
	"context"
	"log/slog"
	"strconv"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return WithAttrs(ctx, "req_id", reqID)
}

// WithUserID tags the contextual logger with the authenticated user.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return WithAttrs(ctx, "user_id", strconv.FormatInt(userID, 10))
}

// WithAttrs returns a context whose logger carries the extra key/value pairs.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}
