package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/database"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepository handles durable delivery records. The orchestrator
// enqueues and (on a successful fast-path send) marks sent; the retry worker
// claims due rows and resolves them.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *database.DB) *OutboxRepository {
	return &OutboxRepository{pool: db.Pool}
}

func scanOutboxRow(row rowScanner) (*models.OutboxMessage, error) {
	var msg models.OutboxMessage
	var templateData []byte

	err := row.Scan(
		&msg.ID, &msg.MessageType, &msg.Recipient, &msg.Subject, &msg.Content,
		&templateData, &msg.Status, &msg.AttemptCount, &msg.MaxRetries,
		&msg.SendAfter, &msg.SentAt, &msg.LastError, &msg.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if len(templateData) > 0 {
		if err := json.Unmarshal(templateData, &msg.TemplateData); err != nil {
			return nil, fmt.Errorf("failed to decode template data: %w", err)
		}
	}

	return &msg, nil
}

const outboxColumns = `id, message_type, recipient, subject, content, template_data,
	status, attempt_count, max_retries, send_after, sent_at, last_error, created_at`

// Enqueue inserts a queued message.
func (r *OutboxRepository) Enqueue(ctx context.Context, msg *models.OutboxMessage) (*models.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SendAfter.IsZero() {
		msg.SendAfter = time.Now()
	}

	var templateData []byte
	if msg.TemplateData != nil {
		var err error
		templateData, err = json.Marshal(msg.TemplateData)
		if err != nil {
			return nil, fmt.Errorf("failed to encode template data: %w", err)
		}
	}

	query := `
		INSERT INTO message_outbox (id, message_type, recipient, subject, content, template_data, status, max_retries, send_after)
		VALUES ($1, $2, $3, $4, $5, $6, 'queued', $7, $8)
		RETURNING ` + outboxColumns

	created, err := scanOutboxRow(r.pool.QueryRow(ctx, query,
		msg.ID, msg.MessageType, msg.Recipient, msg.Subject, msg.Content,
		templateData, msg.MaxRetries, msg.SendAfter,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue outbox message: %w", err)
	}

	return created, nil
}

// GetByID retrieves a message by id
func (r *OutboxRepository) GetByID(ctx context.Context, id string) (*models.OutboxMessage, error) {
	query := `SELECT ` + outboxColumns + ` FROM message_outbox WHERE id = $1`
	return scanOutboxRow(r.pool.QueryRow(ctx, query, id))
}

// MarkSent transitions queued -> sent. The status guard makes the transition
// idempotent: a row already resolved by the other delivery path is left
// untouched and ErrNotFound is returned.
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `
		UPDATE message_outbox
		SET status = 'sent', sent_at = $2, attempt_count = attempt_count + 1
		WHERE id = $1 AND status = 'queued'
	`

	result, err := r.pool.Exec(ctx, query, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message sent: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClaimPending atomically claims up to limit due queued messages for the
// retry worker, incrementing their attempt count. SKIP LOCKED lets multiple
// workers drain the outbox without contending on the same rows.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := `
		UPDATE message_outbox
		SET attempt_count = attempt_count + 1
		WHERE id IN (
			SELECT id FROM message_outbox
			WHERE status = 'queued' AND send_after <= NOW() AND attempt_count < max_retries
			ORDER BY send_after
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending messages: %w", database.MapPostgresError(err))
	}

	return scanOutboxRows(rows)
}

func scanOutboxRows(rows pgx.Rows) ([]*models.OutboxMessage, error) {
	defer rows.Close()

	messages := make([]*models.OutboxMessage, 0)

	for rows.Next() {
		msg, err := scanOutboxRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return messages, nil
}

// FinalizeSent marks a claimed message sent. Unlike MarkSent it does not
// bump the attempt count, which ClaimPending already charged.
func (r *OutboxRepository) FinalizeSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `
		UPDATE message_outbox
		SET status = 'sent', sent_at = $2
		WHERE id = $1 AND status = 'queued'
	`

	result, err := r.pool.Exec(ctx, query, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to finalize outbox message: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RecordFailure stores the delivery error and either schedules the next
// attempt or, when the retry budget is exhausted, marks the row failed.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id string, sendErr string, nextSendAfter time.Time) error {
	query := `
		UPDATE message_outbox
		SET last_error = $2,
		    send_after = $3,
		    status = CASE WHEN attempt_count >= max_retries THEN 'failed' ELSE status END
		WHERE id = $1 AND status = 'queued'
	`

	result, err := r.pool.Exec(ctx, query, id, sendErr, nextSendAfter)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
