package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches which targets were checked recently, so overlapping
// runs (e.g. a slow batch overrunning its cron slot) don't hammer the same
// listings twice inside the dedup window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkChecked sets a key with a TTL after a successful check.
func (s *RedisStore) MarkChecked(ctx context.Context, targetID string, ttl time.Duration) error {
	key := fmt.Sprintf("checked:%s", targetID)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyChecked reports whether a target was checked within the TTL.
func (s *RedisStore) IsRecentlyChecked(ctx context.Context, targetID string) (bool, error) {
	key := fmt.Sprintf("checked:%s", targetID)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
