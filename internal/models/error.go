package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in the "error" field of API responses. Validation,
// consent, rate-limit and verification failures are recoverable by the caller;
// service_unavailable and database_error are operator-actionable.
const (
	CodeValidationError    = "validation_error"
	CodeConsentRequired    = "consent_required"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	CodeSpamDetected       = "spam_detected"
	CodeRecaptchaFailed    = "recaptcha_failed"
	CodeServiceUnavailable = "service_unavailable"
	CodeDatabaseError      = "database_error"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodePayloadTooLarge    = "payload_too_large"
	CodeUnsupportedMedia   = "unsupported_media_type"
)
