package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements CounterStore on a shared Redis instance so that
// quotas hold across protection replicas. INCR plus a window-scoped
// expiry gives the same fixed-window semantics as MemoryStore.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis-backed counter store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: "gatekeeper:ratelimit:",
	}
}

// Incr increments the windowed counter for key. The expiry is attached
// when the key is first created, so the key's TTL is the window reset.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := s.keyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to set counter expiry: %w", err)
		}
		return int(count), time.Now().Add(window), nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read counter ttl: %w", err)
	}
	if ttl < 0 {
		// Expiry lost (e.g. key created by a crashed writer); reattach it
		// so the window still closes.
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to reset counter expiry: %w", err)
		}
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
