package spam

import (
	"context"
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DuplicateWindow is how long a content fingerprint counts as a repeat.
const DuplicateWindow = 5 * time.Minute

// duplicateRetention bounds how long the memory store keeps fingerprints.
const duplicateRetention = 2 * time.Hour

// DuplicateStore remembers content fingerprints of recent submissions.
// Seen records the fingerprint and reports whether it was already present
// within the duplicate window.
type DuplicateStore interface {
	Seen(ctx context.Context, hash string, now time.Time) (bool, error)
}

var (
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	multiSpacesRe = regexp.MustCompile(`\s+`)
)

// ContentHash fingerprints a submission's normalized text plus its contact
// coordinates. Punctuation and whitespace differences do not defeat it.
func ContentHash(message, email, phone string) string {
	normalized := strings.ToLower(message)
	normalized = punctuationRe.ReplaceAllString(normalized, "")
	normalized = multiSpacesRe.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	sum := sha256.Sum256([]byte(normalized + strings.ToLower(email) + phone))
	return fmt.Sprintf("%x", sum)
}

// MemoryDuplicateStore is the process-local implementation. Repeats are
// flagged within DuplicateWindow; fingerprints older than the retention
// horizon are swept on each call.
type MemoryDuplicateStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDuplicateStore() *MemoryDuplicateStore {
	return &MemoryDuplicateStore{seen: make(map[string]time.Time)}
}

func (s *MemoryDuplicateStore) Seen(_ context.Context, hash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-duplicateRetention)
	for h, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, h)
		}
	}

	if last, ok := s.seen[hash]; ok && now.Sub(last) < DuplicateWindow {
		return true, nil
	}

	s.seen[hash] = now
	return false, nil
}
