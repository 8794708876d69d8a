package models

import "time"

// ContactSubmission is a validated, consented contact-form submission.
// Rows are immutable once persisted; the only later mutation is attaching
// the outbox message id of the operator notification.
type ContactSubmission struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone,omitempty"`
	Message         string     `json:"message"`
	ConsentGiven    bool       `json:"consent_given"`
	OutboxMessageID *string    `json:"outbox_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DeliveryMethod reports how the operator notification for a submission was
// (or will be) delivered.
type DeliveryMethod string

const (
	// DeliveryImmediate means the fast-path send succeeded inside the request.
	DeliveryImmediate DeliveryMethod = "immediate"
	// DeliveryQueued means the outbox retry worker owns the delivery.
	DeliveryQueued DeliveryMethod = "queued"
)
