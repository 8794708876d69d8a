package ratelimit

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint derives the one-way client identifier used as the rate-limit
// and duplicate-detection key. The apparent network address is hashed so the
// key is never reversible and never stored or logged in cleartext.
func Fingerprint(clientIP string) string {
	hash := sha256.Sum256([]byte(clientIP))
	return fmt.Sprintf("%x", hash)
}
