package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps window counters in a shared key-value store so every
// service instance observes the same counts. Eviction is delegated to key
// TTLs; no sweep is needed.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "contact:ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(fingerprint string) string {
	return s.prefix + ":" + fingerprint
}

func (s *RedisStore) Incr(ctx context.Context, fingerprint string, window time.Duration) (int, time.Time, error) {
	key := s.key(fingerprint)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate limit key: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("set rate limit expiry: %w", err)
		}
		return int(count), time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("read rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. a crashed Expire); restore it so the
		// window cannot become permanent.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("restore rate limit expiry: %w", err)
		}
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}

func (s *RedisStore) Penalize(ctx context.Context, fingerprint string, n int) error {
	key := s.key(fingerprint)

	// Only charge fingerprints with an open window; IncrBy on a missing key
	// would create a counter with no TTL.
	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read rate limit ttl: %w", err)
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.client.IncrBy(ctx, key, int64(n)).Err(); err != nil {
		return fmt.Errorf("apply rate limit penalty: %w", err)
	}
	return nil
}
