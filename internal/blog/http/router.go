package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/httpx"
	"github.com/aussiebroadwan/blog/pkg/slogx"

	_ "github.com/aussiebroadwan/blog/api/blog" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       httpx.RateLimits

	store store.Store

	Authenticator *service.Authenticator
	Identity      Resolver
	PostService   *service.PostService
	MFAService    *service.MFAService

	// Cache is reported by /readyz when set.
	Cache Pinger
}

func NewRouter(
	buildVersion string,
	st store.Store,
	limits httpx.RateLimits,
	logger *slog.Logger,
	middlewares ...httpx.Middleware,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		limits:       limits,
		store:        st,
	}

	// Outermost first: extra middlewares (tracing, CORS) wrap the logger.
	r.middlewares = append(r.middlewares, middlewares...)
	r.middlewares = append(r.middlewares, slogx.HTTPMiddleware(r.logger))

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerPosts()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Blog API
//	@version		0.1.0
//	@description	Blogging backend: accounts, bearer token authentication, posts, likes and favorites.
//	@description
//	@description				Access tokens are HMAC-signed JWTs valid for 30 minutes by default.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/blog
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authed(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		RequireUser(r.Identity),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.Authenticator}

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// POST /login - strict, keyed by IP + username to slow brute force
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.LimitBody(httpx.MaxFormBytes),
			httpx.RateLimitByIPAndFormField(r.limits.Strict, "username"),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.LimitBody(httpx.MaxFormBytes),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	r.Mux.Handle("GET /v1/auth/current_user", r.authed(h.HandleCurrentUser, r.limits.Lenient))
	r.Mux.Handle("POST /v1/auth/password", r.authed(h.HandleChangePassword, r.limits.Strict))
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/auth/mfa/enroll", r.authed(h.HandleEnroll, r.limits.Moderate))
	// Strict: codes are six digits.
	r.Mux.Handle("POST /v1/auth/mfa/confirm", r.authed(h.HandleConfirm, r.limits.Strict))
	r.Mux.Handle("DELETE /v1/auth/mfa", r.authed(h.HandleDisable, r.limits.Strict))
}

func (r *Router) registerPosts() {
	h := &PostsHandler{Posts: r.PostService}

	// Public reads
	r.Mux.Handle("GET /v1/posts",
		httpx.Chain(http.HandlerFunc(h.HandleList), httpx.RateLimitByIP(r.limits.Lenient)),
	)
	r.Mux.Handle("GET /v1/posts/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet), httpx.RateLimitByIP(r.limits.Lenient)),
	)

	r.Mux.Handle("POST /v1/posts", r.authed(h.HandleCreate, r.limits.Moderate))
	r.Mux.Handle("PUT /v1/posts/{id}", r.authed(h.HandleUpdate, r.limits.Moderate))
	r.Mux.Handle("DELETE /v1/posts/{id}", r.authed(h.HandleDelete, r.limits.Moderate))

	r.Mux.Handle("POST /v1/posts/{id}/like", r.authed(h.HandleLike, r.limits.Moderate))
	r.Mux.Handle("POST /v1/posts/{id}/unlike", r.authed(h.HandleUnlike, r.limits.Moderate))
	r.Mux.Handle("GET /v1/liked-posts", r.authed(h.HandleLiked, r.limits.Lenient))

	r.Mux.Handle("POST /v1/posts/{id}/favorite", r.authed(h.HandleFavorite, r.limits.Moderate))
	r.Mux.Handle("POST /v1/posts/{id}/unfavorite", r.authed(h.HandleUnfavorite, r.limits.Moderate))
	r.Mux.Handle("GET /v1/favorite-posts", r.authed(h.HandleFavorites, r.limits.Lenient))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Cache),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}
