package repositories

import (
	"context"
	"fmt"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/database"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactRepository handles contact submission data access
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{pool: db.Pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContactRow(row rowScanner) (*models.ContactSubmission, error) {
	var submission models.ContactSubmission

	err := row.Scan(
		&submission.ID, &submission.Name, &submission.Email, &submission.Phone,
		&submission.Message, &submission.ConsentGiven, &submission.OutboxMessageID,
		&submission.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &submission, nil
}

// Create persists a validated submission. The row is immutable afterwards
// except for attaching the outbox message reference.
func (r *ContactRepository) Create(ctx context.Context, submission *models.ContactSubmission) (*models.ContactSubmission, error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}

	query := `
		INSERT INTO contact_submissions (id, name, email, phone, message, consent_given)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, email, phone, message, consent_given, outbox_message_id, created_at
	`

	created, err := scanContactRow(r.pool.QueryRow(ctx, query,
		submission.ID, submission.Name, submission.Email, submission.Phone,
		submission.Message, submission.ConsentGiven,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact submission: %w", err)
	}

	return created, nil
}

// GetByID retrieves a submission by id
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.ContactSubmission, error) {
	query := `
		SELECT id, name, email, phone, message, consent_given, outbox_message_id, created_at
		FROM contact_submissions
		WHERE id = $1
	`

	return scanContactRow(r.pool.QueryRow(ctx, query, id))
}

// AttachOutboxMessage records the outbox row that carries the submission's
// operator notification.
func (r *ContactRepository) AttachOutboxMessage(ctx context.Context, id, outboxMessageID string) error {
	query := `
		UPDATE contact_submissions
		SET outbox_message_id = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, outboxMessageID)
	if err != nil {
		return fmt.Errorf("failed to attach outbox message: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
