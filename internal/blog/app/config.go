package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/emailcheck"
	"github.com/aussiebroadwan/blog/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	// Exactly one of TokenSecret or the contents of BLOG_TOKEN_SECRET_FILE
	// must be non-empty. The inline value wins when both are set.
	TokenSecret     string `env:"BLOG_TOKEN_SECRET"`
	TokenSecretFile string `env:"BLOG_TOKEN_SECRET_FILE,file"`

	TokenAlgorithm           string `env:"BLOG_TOKEN_ALGORITHM"             envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"BLOG_ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int    `env:"BLOG_REFRESH_TOKEN_EXPIRE_DAYS"   envDefault:"7"`
	RefreshTokens            bool   `env:"BLOG_REFRESH_TOKENS"              envDefault:"true"`
	Issuer                   string `env:"BLOG_ISSUER"                      envDefault:"blog"`

	DatabaseDriver string `env:"BLOG_DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseFile   string `env:"BLOG_DATABASE_FILE"   envDefault:"blog.db"`
	DatabaseURL    string `env:"BLOG_DATABASE_URL"`
	PepperFile     string `env:"BLOG_PEPPER_FILE"     envDefault:"pepper"`

	EmailCheckURL     string        `env:"BLOG_EMAIL_CHECK_URL"`
	EmailCheckAPIKey  string        `env:"BLOG_EMAIL_CHECK_API_KEY"`
	EmailCheckPolicy  string        `env:"BLOG_EMAIL_CHECK_POLICY"  envDefault:"off"`
	EmailCheckTimeout time.Duration `env:"BLOG_EMAIL_CHECK_TIMEOUT" envDefault:"3s"`
	RedisAddr         string        `env:"BLOG_REDIS_ADDR"`
	RedisPassword     string        `env:"BLOG_REDIS_PASSWORD"`
	EmailCacheTTL     time.Duration `env:"BLOG_EMAIL_CACHE_TTL"     envDefault:"24h"`

	CORSOrigins  []string `env:"BLOG_CORS_ORIGINS" envSeparator:","`
	OTelEndpoint string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// Pre-filled with httpx.DefaultRateLimits; RATELIMIT_* variables
	// override individual values.
	RateLimit httpx.RateLimits `envPrefix:"RATELIMIT_"`
}

// LoadConfig reads the process environment and validates the result.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

// LoadConfigFrom is LoadConfig over an explicit environment.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	return loadConfig(env.Options{Environment: environ})
}

func loadConfig(opts env.Options) (Config, error) {
	cfg := Config{RateLimit: httpx.DefaultRateLimits()}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = strings.TrimSpace(cfg.TokenSecretFile)
	}
	cfg.TokenSecretFile = ""

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration error at once.
func (c Config) Validate() error {
	var errs []error

	if c.TokenSecret == "" {
		errs = append(errs, errors.New("BLOG_TOKEN_SECRET or BLOG_TOKEN_SECRET_FILE is required"))
	}
	switch strings.ToUpper(c.TokenAlgorithm) {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("BLOG_TOKEN_ALGORITHM %q is not an HMAC method", c.TokenAlgorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("BLOG_ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.RefreshTokenExpireDays <= 0 {
		errs = append(errs, errors.New("BLOG_REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("BLOG_DATABASE_FILE is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("BLOG_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOG_DATABASE_DRIVER %q is not sqlite or postgres", c.DatabaseDriver))
	}

	policy, err := emailcheck.ParsePolicy(c.EmailCheckPolicy)
	if err != nil {
		errs = append(errs, err)
	} else if policy != emailcheck.PolicyOff && c.EmailCheckURL == "" {
		errs = append(errs, errors.New("BLOG_EMAIL_CHECK_URL is required when BLOG_EMAIL_CHECK_POLICY is set"))
	}

	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// EmailPolicy is only meaningful after Validate succeeded.
func (c Config) EmailPolicy() emailcheck.Policy {
	p, _ := emailcheck.ParsePolicy(c.EmailCheckPolicy)
	return p
}
