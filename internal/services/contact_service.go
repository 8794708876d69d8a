package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/ratelimit"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/spam"
	pkglogger "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/sanitize"
)

// ContactRepository defines the persistence operations the orchestrator needs
type ContactRepository interface {
	Create(ctx context.Context, submission *models.ContactSubmission) (*models.ContactSubmission, error)
	AttachOutboxMessage(ctx context.Context, id, outboxMessageID string) error
}

// OutboxRepository defines the outbox operations the orchestrator needs
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *models.OutboxMessage) (*models.OutboxMessage, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// Limiter is the fingerprint rate limiter
type Limiter interface {
	Check(ctx context.Context, fingerprint string) ratelimit.Result
	Penalize(ctx context.Context, fingerprint string, n int)
}

// Classifier scores submissions for spam
type Classifier interface {
	Classify(ctx context.Context, in spam.Input) models.SpamSignal
}

// Verifier is the human-verification delegate
type Verifier interface {
	Verify(ctx context.Context, token, fingerprint string) VerificationResult
	Configured() bool
}

// ContactConfig holds orchestrator policy
type ContactConfig struct {
	Env         string
	Recipient   string
	MaxRetries  int
	SendTimeout time.Duration
	SpamPenalty int
}

// SubmitInput is the raw submission plus its request context.
type SubmitInput struct {
	// Fields holds every form field by name, including honeypot decoys.
	Fields map[string]string

	Name    string
	Email   string
	Phone   string
	Message string
	Consent bool
	Token   string

	FormLoadAt  int64
	SubmittedAt int64

	ClientIP       string
	UserAgent      string
	AcceptLanguage string
	Referer        string
}

// SubmitResult is returned on full success. DeliveryMethod reports whether
// the fast path delivered the notification or the retry worker owns it; the
// user-visible contract is the same either way.
type SubmitResult struct {
	ContactID      string
	MessageID      string
	DeliveryMethod models.DeliveryMethod
	RateLimit      ratelimit.Result
}

// SubmitError carries everything the transport layer needs to answer a
// failed pipeline step: status code, stable error code, safe message, and
// optional field details. Spam rejections stay generic on purpose.
type SubmitError struct {
	Status      int
	Code        string
	Message     string
	Details     map[string]string
	RetryAfter  int
	RateLimit   *ratelimit.Result
	SpamBlocked bool
}

func (e *SubmitError) Error() string {
	return e.Code + ": " + e.Message
}

// ContactService orchestrates the intake pipeline: rate limiting, spam
// classification, validation, verification, persistence, outbox enqueue and
// the best-effort immediate send.
type ContactService struct {
	contacts   ContactRepository
	outbox     OutboxRepository
	limiter    Limiter
	classifier Classifier
	verifier   Verifier
	email      EmailService
	config     ContactConfig
	logger     *slog.Logger
}

// NewContactService creates the orchestrator
func NewContactService(
	contacts ContactRepository,
	outbox OutboxRepository,
	limiter Limiter,
	classifier Classifier,
	verifier Verifier,
	email EmailService,
	config ContactConfig,
	logger *slog.Logger,
) *ContactService {
	return &ContactService{
		contacts:   contacts,
		outbox:     outbox,
		limiter:    limiter,
		classifier: classifier,
		verifier:   verifier,
		email:      email,
		config:     config,
		logger:     logger,
	}
}

// Submit runs the pipeline in strict order; any failing step short-circuits
// with that step's error code. Once persistence succeeds the submission is
// durable and delivery failures no longer fail the request.
func (s *ContactService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, *SubmitError) {
	fingerprint := ratelimit.Fingerprint(in.ClientIP)

	// 1. Rate limit
	rl := s.limiter.Check(ctx, fingerprint)
	if !rl.Allowed {
		s.logger.Warn("submission rate limited",
			slog.String("fingerprint", pkglogger.FingerprintPrefix(fingerprint)),
			slog.Int("retry_after", rl.RetryAfter))
		return nil, &SubmitError{
			Status:     http.StatusTooManyRequests,
			Code:       models.CodeRateLimitExceeded,
			Message:    "Too many requests. Please try again later.",
			RetryAfter: rl.RetryAfter,
			RateLimit:  &rl,
		}
	}

	// 2. Spam classification. The reported reason stays server-side: the
	// response is a generic rejection so abusers cannot probe detectors.
	signal := s.classifier.Classify(ctx, spam.Input{
		Fields:         in.Fields,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Message:        in.Message,
		FormLoadAt:     in.FormLoadAt,
		SubmittedAt:    in.SubmittedAt,
		UserAgent:      in.UserAgent,
		AcceptLanguage: in.AcceptLanguage,
		Referer:        in.Referer,
	})
	if signal.IsSpam {
		s.limiter.Penalize(ctx, fingerprint, s.config.SpamPenalty)
		penalized := rl
		penalized.Remaining = max(0, rl.Remaining-s.config.SpamPenalty)
		return nil, &SubmitError{
			Status:      http.StatusBadRequest,
			Code:        models.CodeSpamDetected,
			Message:     "Request blocked.",
			RateLimit:   &penalized,
			SpamBlocked: true,
		}
	}

	// 3. Sanitize, then validate consent and schema
	sanitized := sanitizedSubmission{
		Name:    sanitize.Text(in.Name, 100),
		Email:   sanitize.Email(in.Email),
		Phone:   sanitize.Phone(in.Phone),
		Message: sanitize.Text(in.Message, 2000),
		Consent: in.Consent,
		Token:   in.Token,
	}
	if errs := validateSubmission(sanitized); errs != nil {
		code := models.CodeValidationError
		message := "Please check the submitted fields."
		if _, ok := errs["consent"]; ok {
			code = models.CodeConsentRequired
			message = "Explicit consent is required to process your message."
		}
		return nil, &SubmitError{
			Status:    http.StatusBadRequest,
			Code:      code,
			Message:   message,
			Details:   errs,
			RateLimit: &rl,
		}
	}

	// 4. Human verification. A misconfigured production deployment must not
	// silently fall into skip mode.
	if s.config.Env == "production" && !s.verifier.Configured() {
		s.logger.Error("recaptcha secret missing in production")
		return nil, &SubmitError{
			Status:    http.StatusServiceUnavailable,
			Code:      models.CodeServiceUnavailable,
			Message:   "The contact service is temporarily unavailable.",
			RateLimit: &rl,
		}
	}
	verification := s.verifier.Verify(ctx, sanitized.Token, fingerprint)
	if !verification.Success {
		s.logger.Info("recaptcha verification failed",
			slog.Float64("score", verification.Score),
			slog.String("error", verification.Error))
		return nil, &SubmitError{
			Status:    http.StatusForbidden,
			Code:      models.CodeRecaptchaFailed,
			Message:   "Human verification failed. Please try again.",
			RateLimit: &rl,
		}
	}

	// 5. Persist. No email is ever sent for an unpersisted submission.
	submission := &models.ContactSubmission{
		Name:         sanitized.Name,
		Email:        sanitized.Email,
		Phone:        optional(sanitized.Phone),
		Message:      sanitized.Message,
		ConsentGiven: sanitized.Consent,
	}
	created, err := s.contacts.Create(ctx, submission)
	if err != nil {
		s.logger.Error("failed to persist contact submission", slog.Any("error", err))
		return nil, &SubmitError{
			Status:    http.StatusInternalServerError,
			Code:      models.CodeDatabaseError,
			Message:   "Could not store your message. Please try again.",
			RateLimit: &rl,
		}
	}

	// 6. Enqueue the outbox row. Failure is logged but never fails the
	// request: the submission is already durable and has a manual follow-up
	// path independent of the outbox.
	queued := s.enqueueNotification(ctx, created)

	// 7. Best-effort immediate delivery inside its own failure boundary.
	result := &SubmitResult{
		ContactID:      created.ID,
		DeliveryMethod: models.DeliveryQueued,
		RateLimit:      rl,
	}
	if queued != nil {
		result.MessageID = queued.ID
	}

	if messageID, ok := s.sendImmediate(ctx, created, queued); ok {
		result.DeliveryMethod = models.DeliveryImmediate
		if queued == nil {
			result.MessageID = messageID
		}
	}

	s.logger.Info("contact submission accepted",
		slog.String("contact_id", created.ID),
		slog.String("delivery_method", string(result.DeliveryMethod)))

	return result, nil
}

func (s *ContactService) enqueueNotification(ctx context.Context, submission *models.ContactSubmission) *models.OutboxMessage {
	if s.config.Recipient == "" {
		s.logger.Error("no contact recipient configured, skipping outbox enqueue")
		return nil
	}

	msg := &models.OutboxMessage{
		MessageType: models.OutboxEmail,
		Recipient:   s.config.Recipient,
		Subject:     "Novo contato de " + submission.Name,
		Content:     submission.Message,
		TemplateData: map[string]any{
			"contact_id": submission.ID,
			"name":       submission.Name,
			"email":      submission.Email,
			"phone":      deref(submission.Phone),
			"message":    submission.Message,
		},
		MaxRetries: s.config.MaxRetries,
		SendAfter:  time.Now(),
	}

	queued, err := s.outbox.Enqueue(ctx, msg)
	if err != nil {
		s.logger.Error("failed to enqueue outbox message",
			slog.String("contact_id", submission.ID),
			slog.Any("error", err))
		return nil
	}

	if err := s.contacts.AttachOutboxMessage(ctx, submission.ID, queued.ID); err != nil {
		s.logger.Warn("failed to attach outbox message to submission",
			slog.String("contact_id", submission.ID),
			slog.Any("error", err))
	}

	return queued
}

// sendImmediate attempts the fast-path delivery. On success the outbox row is
// marked sent so the retry worker never re-sends it; on failure the row stays
// queued and the worker owns delivery.
func (s *ContactService) sendImmediate(ctx context.Context, submission *models.ContactSubmission, queued *models.OutboxMessage) (string, bool) {
	if s.config.Recipient == "" {
		return "", false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()

	messageID, err := s.email.SendContactNotification(sendCtx, s.config.Recipient, ContactNotification{
		ContactID:   submission.ID,
		Name:        submission.Name,
		Email:       submission.Email,
		Phone:       deref(submission.Phone),
		Message:     submission.Message,
		SubmittedAt: submission.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("immediate delivery failed, outbox will retry",
			slog.String("contact_id", submission.ID),
			slog.Any("error", err))
		return "", false
	}

	if queued != nil {
		if err := s.outbox.MarkSent(ctx, queued.ID, time.Now()); err != nil {
			// The row may already be resolved by a racing worker; the send
			// happened either way.
			s.logger.Warn("failed to mark outbox message sent",
				slog.String("message_id", queued.ID),
				slog.Any("error", err))
		}
	}

	return messageID, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
