package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
)

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		query     string
		sensitive bool
	}{
		{"", false},
		{"page=2&sort=asc", false},
		{"token=abc123", true},
		{"EMAIL=user%40example.com", true},
		{"g-recaptcha-response=xyz", true},
		{"next=/contact", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.sensitive, logger.SanitizeQueryString(tt.query), tt.query)
	}
}

func TestFingerprintPrefix(t *testing.T) {
	full := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	assert.Equal(t, "0123456789abcdef...", logger.FingerprintPrefix(full))
	assert.Equal(t, "short", logger.FingerprintPrefix("short"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "m***@example.com", logger.RedactEmail("maria@example.com"))
	assert.Equal(t, "[redacted]", logger.RedactEmail("not-an-email"))
	assert.Equal(t, "[redacted]", logger.RedactEmail("@example.com"))
}
