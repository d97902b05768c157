package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *goredis.Client
}

func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set rate key ttl: %w", err)
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate key ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}
