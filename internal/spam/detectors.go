package spam

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	pkglogger "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
)

// honeypotFields are decoy field names rendered invisibly in the form.
// A human never fills them; automated submitters usually do.
var honeypotFields = []string{
	"website",
	"url",
	"honeypot",
	"bot_field",
	"email_confirm",
	"phone_confirm",
}

func detectHoneypot(_ context.Context, in Input) *models.SpamSignal {
	for _, field := range honeypotFields {
		if value, ok := in.Fields[field]; ok && strings.TrimSpace(value) != "" {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonHoneypotFilled,
				Confidence: 0.95,
				Evidence:   field,
			}
		}
	}
	return nil
}

func detectTiming(cfg Config) func(context.Context, Input) *models.SpamSignal {
	return func(_ context.Context, in Input) *models.SpamSignal {
		if in.FormLoadAt == 0 || in.SubmittedAt == 0 {
			return nil
		}

		elapsed := time.Duration(in.SubmittedAt-in.FormLoadAt) * time.Millisecond
		if elapsed < 0 {
			return nil
		}

		if elapsed < cfg.MinFillTime {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonSubmissionTooFast,
				Confidence: 0.9,
				Evidence:   elapsed.String(),
			}
		}

		if elapsed > cfg.MaxFillTime {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonFormExpired,
				Confidence: 0.7,
				Evidence:   elapsed.String(),
			}
		}

		return nil
	}
}

var botUserAgents = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bot|crawler|spider|scraper|automation`),
	regexp.MustCompile(`(?i)curl|wget|python|php|java|node|axios|fetch`),
	regexp.MustCompile(`(?i)mozilla/4\.0.*compatible.*msie`),
	regexp.MustCompile(`(?i)headless|phantom|selenium|webdriver`),
	regexp.MustCompile(`(?i)postman|insomnia|httpie`),
}

func detectUserAgent(_ context.Context, in Input) *models.SpamSignal {
	if strings.TrimSpace(in.UserAgent) == "" {
		return &models.SpamSignal{
			IsSpam:     true,
			Reason:     models.ReasonSuspiciousUserAgent,
			Confidence: 0.8,
			Evidence:   "empty",
		}
	}

	for _, pattern := range botUserAgents {
		if pattern.MatchString(in.UserAgent) {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonSuspiciousUserAgent,
				Confidence: 0.85,
				Evidence:   truncate(in.UserAgent, 100),
			}
		}
	}
	return nil
}

func detectBrowserHeaders(_ context.Context, in Input) *models.SpamSignal {
	// Legitimate browsers always send Accept-Language.
	if len(in.AcceptLanguage) < 2 {
		return &models.SpamSignal{
			IsSpam:     true,
			Reason:     models.ReasonMissingBrowserHeaders,
			Confidence: 0.8,
			Evidence:   "accept-language",
		}
	}
	return nil
}

// contentPatterns is the fixed spam vocabulary, tested against the
// concatenated lowercase text fields.
var contentPatterns = []*regexp.Regexp{
	// Link flooding and URL shorteners
	regexp.MustCompile(`(?i)(https?://\S+.*){3,}`),
	regexp.MustCompile(`(?i)\b(bit\.ly|tinyurl|t\.co|goo\.gl|short\.link|tiny\.cc)\b`),

	// Common spam phrases, English and Portuguese
	regexp.MustCompile(`(?i)\b(viagra|cialis|casino|lottery|winner|congratulations|click here|free money)\b`),
	regexp.MustCompile(`(?i)\b(ganhe dinheiro|clique aqui|oferta imperdível|dinheiro fácil|renda extra)\b`),
	regexp.MustCompile(`(?i)\b(bitcoin|cryptocurrency|forex|trading)\b.*\b(profit|roi|investment)\b`),
	regexp.MustCompile(`(?i)\b(weight loss|diet pills|male enhancement)\b`),

	// Excessive capitalization or repeated characters
	regexp.MustCompile(`[A-Z]{15,}`),
	regexp.MustCompile(`(.)\1{8,}`),

	// Disposable email domains
	regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@(tempmail|10minutemail|guerrillamail|mailinator|throwaway|temp-mail|yopmail|sharklasers)\.`),

	// Toll-free spam numbers and digit floods
	regexp.MustCompile(`(\d)\1{7,}`),
	regexp.MustCompile(`(?i)\+1-?800-?\d{3}-?\d{4}`),

	// SEO spam
	regexp.MustCompile(`(?i)\b(backlinks|link building|page rank|google ranking)\b`),

	// Financial spam
	regexp.MustCompile(`(?i)\b(loan|credit|debt|mortgage)\b.*\b(approved|guaranteed|instant|fast)\b`),
}

func detectContentPatterns(_ context.Context, in Input) *models.SpamSignal {
	combined := strings.ToLower(strings.Join([]string{in.Name, in.Message, in.Subject, in.Email}, " "))

	for _, pattern := range contentPatterns {
		if pattern.MatchString(combined) {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonSuspiciousContent,
				Confidence: 0.85,
				Evidence:   truncate(pattern.String(), 50),
			}
		}
	}
	return nil
}

func detectDuplicate(store DuplicateStore, logger *slog.Logger) func(context.Context, Input) *models.SpamSignal {
	return func(ctx context.Context, in Input) *models.SpamSignal {
		hash := ContentHash(in.Message, in.Email, in.Phone)

		seen, err := store.Seen(ctx, hash, in.Now)
		if err != nil {
			// An unavailable duplicate store must not block submissions.
			logger.Warn("duplicate store unavailable, skipping check", slog.Any("error", err))
			return nil
		}

		if seen {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonDuplicateContent,
				Confidence: 0.9,
				Evidence:   pkglogger.FingerprintPrefix(hash),
			}
		}
		return nil
	}
}

var suspiciousNameRe = regexp.MustCompile(`\d{5,}|[^\w\s\-'.À-ÿ]`)

func detectFieldShape(cfg Config) func(context.Context, Input) *models.SpamSignal {
	return func(_ context.Context, in Input) *models.SpamSignal {
		if len(in.Name) > cfg.MaxNameLen || len(in.Email) > cfg.MaxEmailLen || len(in.Message) > cfg.MaxMessageLen {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonFieldTooLong,
				Confidence: 0.8,
				Evidence:   fmt.Sprintf("name=%d email=%d message=%d", len(in.Name), len(in.Email), len(in.Message)),
			}
		}

		if in.Name != "" && suspiciousNameRe.MatchString(in.Name) {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonSuspiciousName,
				Confidence: 0.75,
				Evidence:   truncate(in.Name, 50),
			}
		}

		if len(in.Fields) > cfg.MaxFieldCount {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonTooManyFields,
				Confidence: 0.7,
				Evidence:   fmt.Sprintf("fields=%d", len(in.Fields)),
			}
		}

		if in.Referer != "" && !refererAllowed(in.Referer, cfg.AllowedReferers) {
			return &models.SpamSignal{
				IsSpam:     true,
				Reason:     models.ReasonSuspiciousReferrer,
				Confidence: 0.6,
				Evidence:   truncate(in.Referer, 100),
			}
		}

		return nil
	}
}

func refererAllowed(referer string, allowed []string) bool {
	for _, host := range allowed {
		if strings.Contains(referer, host) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
