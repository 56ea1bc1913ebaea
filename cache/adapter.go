package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/textrpg/cache/local"
	cacheredis "github.com/kasuganosora/textrpg/cache/redis"
)

// ErrNotFound is returned by both backends when a key or member is absent.
var ErrNotFound = errors.New("cache: key not found")

// Cache holds the short-lived game state that does not belong in the record
// store: active battle handles, login sessions and the leaderboard.
type Cache interface {
	// KV
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// ZSet
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRank(ctx context.Context, key, member string) (int64, error)
}

// CacheConfig holds configuration for both Redis and LocalCache.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

// NewCache returns a Cache backed by Redis if RedisAddr is set,
// otherwise returns an in-process LocalCache.
func NewCache(cfg CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		rc, err := cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &notFoundAdapter{Cache: rc, backendErr: cacheredis.ErrNotFound}, nil
	}
	lc, err := local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
	if err != nil {
		return nil, err
	}
	return &notFoundAdapter{Cache: lc, backendErr: local.ErrNotFound}, nil
}

// IsNotFound reports whether err means the key or member is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ---- adapter unifying the backends' not-found errors ----

type notFoundAdapter struct {
	Cache
	backendErr error
}

func (a *notFoundAdapter) wrap(err error) error {
	if err != nil && errors.Is(err, a.backendErr) {
		return ErrNotFound
	}
	return err
}

func (a *notFoundAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.Cache.Get(ctx, key)
	return v, a.wrap(err)
}

func (a *notFoundAdapter) ZRevRank(ctx context.Context, key, member string) (int64, error) {
	v, err := a.Cache.ZRevRank(ctx, key, member)
	return v, a.wrap(err)
}
