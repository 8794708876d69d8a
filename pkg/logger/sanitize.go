// Package logger holds helpers that keep PII out of structured logs.
package logger

import (
	"strings"
)

// sensitiveParams are query-string keys that must never reach the logs.
var sensitiveParams = []string{
	"token",
	"secret",
	"password",
	"email",
	"phone",
	"g-recaptcha-response",
}

// SanitizeQueryString reports whether a raw query string contains sensitive
// parameters and should be redacted wholesale rather than logged.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	lower := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(lower, param+"=") {
			return true
		}
	}
	return false
}

// FingerprintPrefix shortens a hashed client fingerprint for logging. The
// full hash never appears in logs; a prefix is enough to correlate events.
func FingerprintPrefix(fingerprint string) string {
	if len(fingerprint) <= 16 {
		return fingerprint
	}
	return fingerprint[:16] + "..."
}

// RedactEmail masks the local part of an address, keeping the domain for
// operational debugging.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "[redacted]"
	}
	return email[:1] + "***@" + email[at+1:]
}
