package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RishiKendai/shingle/internal/plagiarism"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "comparison_result:"

// RedisCache shares results between service instances.
type RedisCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewRedisCache(rdb goredis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultLRUTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*plagiarism.Result, bool) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read cached result")
		}
		return nil, false
	}

	var result plagiarism.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cached result")
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *plagiarism.Result) {
	if result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode result for cache")
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache result")
	}
}
