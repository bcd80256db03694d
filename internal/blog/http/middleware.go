package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/httpx"
	"github.com/aussiebroadwan/blog/pkg/slogx"
)

type userCtxKey struct{}

// Resolver is satisfied by *service.IdentityResolver.
type Resolver interface {
	Resolve(ctx context.Context, token string, now time.Time) (domain.User, error)
}

// RequireUser resolves the bearer token on every request and stores the
// user in the request context. It is the only gate in front of protected
// handlers.
func RequireUser(resolver Resolver) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpx.BearerToken(r)
			if !ok {
				httpx.WriteBearerChallenge(w, "Not authenticated")
				return
			}

			u, err := resolver.Resolve(r.Context(), token, time.Now())
			switch {
			case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
				httpx.WriteBearerError(w, blogsdk.ErrInvalidToken.Description)
				return
			case err != nil:
				slogx.FromContext(r.Context()).Error("resolve identity", "err", err)
				blogsdk.ErrServiceUnavailable.WriteError(w)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey{}, u)
			ctx = httpx.WithUserID(ctx, u.ID)
			ctx = slogx.WithUserID(ctx, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// mustUser is for handlers mounted behind RequireUser. It writes a 401 and
// returns false if the middleware was somehow skipped.
func mustUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		httpx.WriteBearerChallenge(w, "Not authenticated")
	}
	return u, ok
}
