package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
)

const keyPrefix = "leadflow:verification:"

// RedisResultCache stores verification results as JSON with a TTL, so
// repeated verifications of the same contact skip the probe and carrier
// lookup until the entry expires.
type RedisResultCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisResultCache(client *redis.Client, logger *zap.Logger) *RedisResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResultCache{client: client, logger: logger}
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (verification.Result, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return verification.Result{}, false, nil
	}
	if err != nil {
		return verification.Result{}, false, err
	}

	var result verification.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, keyPrefix+key)
		return verification.Result{}, false, nil
	}
	return result, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, result verification.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}
