package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// windowEntry tracks one fingerprint's current window. Entries are replaced,
// not merged, once the window expires.
type windowEntry struct {
	windowStart time.Time
	expiresAt   time.Time
	attempts    int
}

// MemoryStore is a process-local counter map. State is not shared across
// instances; deployments running more than one replica should use RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	// sweepChance is the probability that a call triggers an eviction pass.
	sweepChance float64
	now         func() time.Time
}

// Stats summarizes the store's occupancy for monitoring.
type Stats struct {
	TotalEntries   int
	ActiveEntries  int
	ExpiredEntries int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]*windowEntry),
		sweepChance: 0.1,
		now:         time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, fingerprint string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if rand.Float64() < s.sweepChance {
		s.sweepLocked(now)
	}

	entry, ok := s.entries[fingerprint]
	if !ok || now.After(entry.expiresAt) {
		entry = &windowEntry{
			windowStart: now,
			expiresAt:   now.Add(window),
			attempts:    1,
		}
		s.entries[fingerprint] = entry
		return 1, entry.expiresAt, nil
	}

	entry.attempts++
	return entry.attempts, entry.expiresAt, nil
}

func (s *MemoryStore) Penalize(_ context.Context, fingerprint string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[fingerprint]; ok && s.now().Before(entry.expiresAt) {
		entry.attempts += n
	}
	return nil
}

// Sweep evicts every entry past its expiry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for fp, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, fp)
			removed++
		}
	}
	return removed
}

// Stats reports current occupancy without evicting anything.
func (s *MemoryStore) Stats() Stats {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{TotalEntries: len(s.entries)}
	for _, entry := range s.entries {
		if now.After(entry.expiresAt) {
			st.ExpiredEntries++
		} else {
			st.ActiveEntries++
		}
	}
	return st
}
