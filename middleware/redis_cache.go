package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrek82/keyquery/core"
)

// RedisCacheMiddleware caches SELECT results in Redis.
// Only queries whose context carries core.WithCacheTTL are cached. Redis
// errors are treated as cache misses.
type RedisCacheMiddleware struct {
	Client redis.UniversalClient
	// DefaultTTL applies when the context asks for the default lifetime.
	// Zero stores without expiration.
	DefaultTTL time.Duration
}

func NewRedisCache(opt *redis.Options) *RedisCacheMiddleware {
	return NewRedisCacheWithClient(redis.NewClient(opt))
}

// NewRedisCacheWithClient wraps an existing client, e.g. a cluster client.
func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCacheMiddleware {
	return &RedisCacheMiddleware{Client: client}
}

func (m *RedisCacheMiddleware) Name() string {
	return "RedisCache"
}

func (m *RedisCacheMiddleware) Init(db *core.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Ping(ctx).Err()
}

func (m *RedisCacheMiddleware) Shutdown() error {
	return m.Client.Close()
}

func (m *RedisCacheMiddleware) Process(ctx context.Context, query *core.Query, next core.QueryFunc) (*core.Result, error) {
	ttl, ok := cacheTTL(ctx, m.DefaultTTL)
	if !ok {
		return next(ctx, query)
	}

	key := cacheKey(query)

	if data, err := m.Client.Get(ctx, key).Bytes(); err == nil {
		if res, ok := restore(query, data); ok {
			return res, nil
		}
	}

	res, err := next(ctx, query)
	if err != nil {
		return res, err
	}

	if res != nil && res.Data != nil {
		if data, err := json.Marshal(res.Data); err == nil {
			m.Client.Set(ctx, key, data, ttl)
		}
	}

	return res, nil
}
