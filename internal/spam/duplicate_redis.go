package spam

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDuplicateStore shares content fingerprints across service instances.
// SET NX with a TTL equal to the duplicate window is atomic: the first
// submission claims the key, repeats within the window see it held, and the
// TTL replaces any sweeping.
type RedisDuplicateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisDuplicateStore(client *redis.Client, prefix string) *RedisDuplicateStore {
	if prefix == "" {
		prefix = "contact:duplicate"
	}
	return &RedisDuplicateStore{client: client, prefix: prefix}
}

func (s *RedisDuplicateStore) Seen(ctx context.Context, hash string, now time.Time) (bool, error) {
	key := s.prefix + ":" + hash

	claimed, err := s.client.SetNX(ctx, key, now.UnixMilli(), DuplicateWindow).Result()
	if err != nil {
		return false, fmt.Errorf("claim duplicate key: %w", err)
	}

	return !claimed, nil
}
