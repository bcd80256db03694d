package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/emailcheck"
	httpapi "github.com/aussiebroadwan/blog/internal/blog/http"
	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/internal/blog/store/drivers/postgres"
	"github.com/aussiebroadwan/blog/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/blog/pkg/cryptox"
	"github.com/aussiebroadwan/blog/pkg/httpx"
	"github.com/aussiebroadwan/blog/pkg/jwtx"
	"github.com/aussiebroadwan/blog/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ServiceName = "blog"

	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application owns every long-lived dependency of the blog service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db            store.Store
	redis         *redis.Client // nil unless BLOG_REDIS_ADDR is set
	codec         *jwtx.Codec
	stopTracing   func(context.Context) error
	authenticator *service.Authenticator
	identity      *service.IdentityResolver
	postService   *service.PostService
	mfaService    *service.MFAService
	emailCache    *emailcheck.RedisCache

	server *http.Server
}

// New builds the application. Any error is a configuration or startup
// failure and the process should exit.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	stop, err := setupTracing(ctx, cfg.OTelEndpoint, ServiceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.stopTracing = stop

	if err := app.initDatabase(ctx); err != nil {
		_ = app.closeResources(ctx)
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		_ = app.closeResources(ctx)
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the fully wrapped HTTP handler.
func (app *Application) Handler() http.Handler { return app.server.Handler }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("blog service starting", "port", app.cfg.Port, "version", BuildVersion, "driver", app.cfg.DatabaseDriver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down blog service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	err := app.closeResources(ctx)
	app.logger.Info("blog service stopped")
	return err
}

func (app *Application) closeResources(ctx context.Context) error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	if app.stopTracing != nil {
		if err := app.stopTracing(ctx); err != nil {
			app.logger.Error("error flushing traces", "error", err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices builds the token codec, hasher and business services
func (app *Application) initServices(ctx context.Context) error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.codec, err = jwtx.NewCodec(jwtx.Options{
		Secret:     []byte(app.cfg.TokenSecret),
		Algorithm:  app.cfg.TokenAlgorithm,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL(),
		RefreshTTL: app.cfg.RefreshTTL(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	app.authenticator = &service.Authenticator{
		Store:         app.db,
		Hasher:        &cryptox.Hasher{Pepper: pepper},
		Tokens:        app.codec,
		EmailPolicy:   app.cfg.EmailPolicy(),
		EmailTimeout:  app.cfg.EmailCheckTimeout,
		RefreshTokens: app.cfg.RefreshTokens,
	}
	if app.authenticator.EmailPolicy != emailcheck.PolicyOff {
		app.authenticator.EmailVerifier = app.initEmailVerifier(ctx)
	}

	app.identity = &service.IdentityResolver{Store: app.db, Tokens: app.codec}
	app.postService = &service.PostService{Store: app.db}
	app.mfaService = &service.MFAService{Store: app.db, Issuer: app.cfg.Issuer}
	return nil
}

// initEmailVerifier returns the HTTP verifier, fronted by Redis when one is
// configured and reachable.
func (app *Application) initEmailVerifier(ctx context.Context) emailcheck.Verifier {
	var v emailcheck.Verifier = emailcheck.NewHTTPVerifier(
		app.cfg.EmailCheckURL,
		app.cfg.EmailCheckAPIKey,
		app.cfg.EmailCheckTimeout,
	)
	app.logger.Info("email verification enabled", "policy", app.cfg.EmailCheckPolicy)

	if app.cfg.RedisAddr == "" {
		return v
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rdb, err := emailcheck.NewRedisClient(pingCtx, app.cfg.RedisAddr, app.cfg.RedisPassword)
	if err != nil {
		app.logger.Warn("redis unavailable, email verdicts will not be cached", "addr", app.cfg.RedisAddr, "error", err)
		return v
	}
	app.redis = rdb
	app.emailCache = &emailcheck.RedisCache{Client: rdb, TTL: app.cfg.EmailCacheTTL, Next: v}
	return app.emailCache
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.cfg.RateLimit,
		app.logger,
		otelhttp.NewMiddleware(ServiceName),
		httpx.CORS(app.cfg.CORSOrigins),
	)

	router.Authenticator = app.authenticator
	router.Identity = app.identity
	router.PostService = app.postService
	router.MFAService = app.mfaService
	if app.emailCache != nil {
		router.Cache = app.emailCache
	}
	router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
