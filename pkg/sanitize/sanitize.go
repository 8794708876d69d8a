// Package sanitize scrubs untrusted form input before validation and
// persistence. Stripping happens server-side and is intentionally lossy:
// markup is removed, not escaped, so stored values are always plain text.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	scriptTagRe    = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleTagRe     = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	anyTagRe       = regexp.MustCompile(`<[^>]*>`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe    = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	phoneCharsRe   = regexp.MustCompile(`[^\d\s()\-+]`)
)

// HTML removes script and style blocks (including their content), every other
// tag, inline event-handler attributes and javascript: schemes.
func HTML(input string) string {
	out := scriptTagRe.ReplaceAllString(input, "")
	out = styleTagRe.ReplaceAllString(out, "")
	out = eventAttrRe.ReplaceAllString(out, "")
	out = anyTagRe.ReplaceAllString(out, "")
	out = jsSchemeRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text sanitizes free-text input: HTML stripping, null bytes and control
// characters removed, whitespace normalized, length capped.
func Text(input string, maxLen int) string {
	out := HTML(input)
	out = strings.ReplaceAll(out, "\x00", "")
	out = controlCharsRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

// Email lowercases and trims. No HTML stripping, which could mangle addresses.
func Email(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Phone keeps only digits, spaces, parentheses, hyphens and a plus sign.
func Phone(input string) string {
	return strings.TrimSpace(phoneCharsRe.ReplaceAllString(input, ""))
}
