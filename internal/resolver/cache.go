package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
)

// Cache stores ranked resolution results so re-entering the confirmation
// gate (resolve, ask the user, resolve again with confirmed=true) does not
// bill the upstream APIs twice.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.ResolutionCandidate, bool)
	Put(ctx context.Context, key string, candidates []domain.ResolutionCandidate)
}

// NopCache is the no-Redis fallback. Every lookup is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]domain.ResolutionCandidate, bool) { return nil, false }
func (NopCache) Put(context.Context, string, []domain.ResolutionCandidate)        {}

// RedisCache keeps resolver results in Redis with a TTL. Cache errors are
// never fatal: a broken Redis degrades to direct source calls.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a resolver cache on the given Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.ResolutionCandidate, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("resolver cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	var out []domain.ResolutionCandidate
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Debug("resolver cache entry corrupt", "key", key)
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Put(ctx context.Context, key string, candidates []domain.ResolutionCandidate) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Debug("resolver cache write failed", "key", key, "error", err.Error())
	}
}
