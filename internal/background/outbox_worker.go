package background

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/services"
)

// OutboxStore defines the outbox operations the worker needs
type OutboxStore interface {
	ClaimPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	FinalizeSent(ctx context.Context, id string, sentAt time.Time) error
	RecordFailure(ctx context.Context, id string, sendErr string, nextSendAfter time.Time) error
}

// OutboxWorkerConfig holds worker scheduling policy
type OutboxWorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
	SendsPerSecond float64
	SendTimeout    time.Duration
}

// OutboxWorker drains queued outbox messages that the immediate-send fast
// path did not resolve. Claims are idempotent: rows already sent are never
// re-attempted, and SKIP LOCKED claiming lets multiple workers coexist.
type OutboxWorker struct {
	store  OutboxStore
	email  services.EmailService
	config OutboxWorkerConfig
	pacer  *rate.Limiter
	logger *slog.Logger
	done   chan struct{}
}

// NewOutboxWorker creates a worker with sane scheduling defaults.
func NewOutboxWorker(store OutboxStore, email services.EmailService, config OutboxWorkerConfig, logger *slog.Logger) *OutboxWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 1 * time.Minute
	}
	if config.MaxRetryDelay <= 0 {
		config.MaxRetryDelay = 30 * time.Minute
	}
	if config.SendsPerSecond <= 0 {
		config.SendsPerSecond = 1
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 10 * time.Second
	}

	return &OutboxWorker{
		store:  store,
		email:  email,
		config: config,
		pacer:  rate.NewLimiter(rate.Limit(config.SendsPerSecond), 1),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start runs the drain loop until the context is cancelled.
func (w *OutboxWorker) Start(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("outbox worker started",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", w.config.BatchSize))

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("outbox drain cycle failed", slog.Any("error", err))
			}
		}
	}
}

// Stop blocks until the drain loop has exited.
func (w *OutboxWorker) Stop() {
	<-w.done
}

// ProcessBatch claims due messages and attempts delivery for each.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) error {
	claimed, err := w.store.ClaimPending(ctx, w.config.BatchSize)
	if err != nil {
		return err
	}
	if len(claimed) == 0 {
		return nil
	}

	sent, failed := 0, 0
	for _, msg := range claimed {
		if err := w.pacer.Wait(ctx); err != nil {
			return err
		}

		if w.deliver(ctx, msg) {
			sent++
		} else {
			failed++
		}
	}

	w.logger.Info("outbox batch processed",
		slog.Int("claimed", len(claimed)),
		slog.Int("sent", sent),
		slog.Int("failed", failed))

	return nil
}

func (w *OutboxWorker) deliver(ctx context.Context, msg *models.OutboxMessage) bool {
	sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
	defer cancel()

	_, err := w.email.SendContactNotification(sendCtx, msg.Recipient, notificationFrom(msg))
	if err != nil {
		nextSendAfter := time.Now().Add(w.backoff(msg.AttemptCount))
		if recordErr := w.store.RecordFailure(ctx, msg.ID, err.Error(), nextSendAfter); recordErr != nil {
			w.logger.Error("failed to record outbox failure",
				slog.String("message_id", msg.ID),
				slog.Any("error", recordErr))
		}
		if msg.Exhausted() {
			// RecordFailure flips the row to failed once the budget is
			// spent; this attempt was its last.
			w.logger.Error("outbox message permanently failed",
				slog.String("message_id", msg.ID),
				slog.Int("attempt", msg.AttemptCount),
				slog.Int("max_retries", msg.MaxRetries),
				slog.Any("error", err))
		} else {
			w.logger.Warn("outbox delivery failed",
				slog.String("message_id", msg.ID),
				slog.Int("attempt", msg.AttemptCount),
				slog.Any("error", err))
		}
		return false
	}

	if err := w.store.FinalizeSent(ctx, msg.ID, time.Now()); err != nil {
		// Row resolved concurrently; the message was delivered regardless.
		w.logger.Warn("failed to finalize sent outbox message",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
	}
	return true
}

// backoff doubles the delay per attempt, capped at MaxRetryDelay.
func (w *OutboxWorker) backoff(attempt int) time.Duration {
	delay := w.config.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= w.config.MaxRetryDelay {
			return w.config.MaxRetryDelay
		}
	}
	return delay
}

// notificationFrom rebuilds the rendered notification from the row's
// template data, falling back to the raw content fields.
func notificationFrom(msg *models.OutboxMessage) services.ContactNotification {
	data := msg.TemplateData

	get := func(key string) string {
		if data == nil {
			return ""
		}
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}

	notification := services.ContactNotification{
		ContactID:   get("contact_id"),
		Name:        get("name"),
		Email:       get("email"),
		Phone:       get("phone"),
		Message:     get("message"),
		SubmittedAt: msg.CreatedAt,
	}
	if notification.Message == "" {
		notification.Message = msg.Content
	}
	return notification
}
