package models

// SpamReason identifies which detector flagged a submission. The values are
// stable identifiers used in logs and tests; they are never returned to the
// caller.
type SpamReason string

const (
	ReasonHoneypotFilled        SpamReason = "honeypot_filled"
	ReasonSubmissionTooFast     SpamReason = "submission_too_fast"
	ReasonFormExpired           SpamReason = "form_expired"
	ReasonSuspiciousUserAgent   SpamReason = "suspicious_user_agent"
	ReasonMissingBrowserHeaders SpamReason = "missing_browser_headers"
	ReasonSuspiciousContent     SpamReason = "suspicious_content_pattern"
	ReasonDuplicateContent      SpamReason = "duplicate_content"
	ReasonFieldTooLong          SpamReason = "field_too_long"
	ReasonSuspiciousName        SpamReason = "suspicious_name_pattern"
	ReasonTooManyFields         SpamReason = "too_many_fields"
	ReasonSuspiciousReferrer    SpamReason = "suspicious_referrer"
)

// SpamSignal is the tagged outcome of classifying a submission. Confidence is
// in [0,1]; Evidence carries a short, non-PII hint for logs (field name,
// matched pattern prefix, elapsed time).
type SpamSignal struct {
	IsSpam     bool
	Reason     SpamReason
	Confidence float64
	Evidence   string
}

// Clean is the signal returned when no detector fires.
var Clean = SpamSignal{}
