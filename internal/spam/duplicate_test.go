package spam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDuplicateStore struct{}

func (failingDuplicateStore) Seen(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestContentHash_NormalizesPunctuationAndWhitespace(t *testing.T) {
	a := ContentHash("Hello,   World! How are you?", "user@example.com", "")
	b := ContentHash("hello world how are you", "USER@example.com", "")

	assert.Equal(t, a, b)
}

func TestContentHash_DifferentContentDiffers(t *testing.T) {
	a := ContentHash("first message", "user@example.com", "")
	b := ContentHash("second message", "user@example.com", "")
	c := ContentHash("first message", "other@example.com", "")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMemoryDuplicateStore_FlagsRepeatWithinWindow(t *testing.T) {
	store := NewMemoryDuplicateStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	seen, err := store.Seen(ctx, "hash-1", now)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.Seen(ctx, "hash-1", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryDuplicateStore_AllowsRepeatAfterWindow(t *testing.T) {
	store := NewMemoryDuplicateStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	_, err := store.Seen(ctx, "hash-1", now)
	require.NoError(t, err)

	seen, err := store.Seen(ctx, "hash-1", now.Add(DuplicateWindow+time.Second))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDuplicateStore_SweepsOldFingerprints(t *testing.T) {
	store := NewMemoryDuplicateStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	_, err := store.Seen(ctx, "hash-old", now)
	require.NoError(t, err)

	// Three hours later the old fingerprint must be gone
	_, err = store.Seen(ctx, "hash-new", now.Add(3*time.Hour))
	require.NoError(t, err)

	store.mu.Lock()
	_, stillThere := store.seen["hash-old"]
	store.mu.Unlock()
	assert.False(t, stillThere)
}
