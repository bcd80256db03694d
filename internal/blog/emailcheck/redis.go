package emailcheck

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/pkg/cryptox"
	"github.com/aussiebroadwan/blog/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "emailcheck:"

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// RedisCache remembers definitive verdicts from Next for TTL. Addresses are
// stored only as fingerprints. A failing Redis never blocks verification, the
// call just goes through to Next.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	Next   Verifier
}

func cacheKey(email string) string {
	return keyPrefix + cryptox.FingerprintToken(strings.ToLower(strings.TrimSpace(email)))
}

func (c *RedisCache) Verify(ctx context.Context, email string) (Verdict, error) {
	log := slogx.FromContext(ctx)
	key := cacheKey(email)

	cached, err := c.Client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if v := parseVerdict(cached); v != Unknown {
			return v, nil
		}
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("emailcheck cache read failed", "err", err)
	}

	v, err := c.Next.Verify(ctx, email)
	if err != nil || v == Unknown {
		return v, err
	}

	if err := c.Client.Set(ctx, key, v.String(), c.TTL).Err(); err != nil {
		log.Warn("emailcheck cache write failed", "err", err)
	}
	return v, nil
}

// Ping reports whether the cache backend is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
