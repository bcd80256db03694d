package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"go.opentelemetry.io/otel/attribute"
)

// IdentityResolver turns a bearer token into the user it was issued for.
// Every call reads the store; nothing is cached between requests.
type IdentityResolver struct {
	Store  store.Store
	Tokens *jwtx.Codec
}

// Resolve fails with ErrInvalidToken for anything the codec rejects and
// ErrUserNotFound when the subject no longer exists. A password change
// does not invalidate a token.
func (r *IdentityResolver) Resolve(ctx context.Context, token string, now time.Time) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "IdentityResolver.Resolve")
	defer span.End()

	claims, err := r.Tokens.DecodeAccess(token, now)
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}

	u, err := r.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, upstream(span, err)
	}
	span.SetAttributes(attribute.Int64("user.id", id))
	return u, nil
}
