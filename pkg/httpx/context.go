package httpx

import (
	"context"
	"strconv"
)

type ctxKey string

const CtxKeyUserID ctxKey = "user_id"

// WithUserID records the authenticated user id for middleware further down
// the chain (per-user rate limits, logging).
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, id)
}

// UserIDFromContext returns the id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(int64)
	return id, ok
}

func userIDString(ctx context.Context) string {
	if id, ok := UserIDFromContext(ctx); ok {
		return strconv.FormatInt(id, 10)
	}
	return ""
}
