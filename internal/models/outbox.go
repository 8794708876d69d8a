package models

import "time"

// OutboxStatus is the delivery state of an outbox row.
type OutboxStatus string

const (
	OutboxQueued OutboxStatus = "queued"
	OutboxSent   OutboxStatus = "sent"
	OutboxFailed OutboxStatus = "failed"
)

// OutboxMessageType distinguishes delivery channels.
type OutboxMessageType string

const OutboxEmail OutboxMessageType = "email"

// OutboxMessage is a durable record of a pending, sent or failed delivery.
// A row transitions queued->sent (by the immediate-send fast path or the
// retry worker) or queued->failed (attempts exhausted). Once sent the row is
// terminal; this is the idempotency boundary that prevents duplicate
// notifications when both delivery paths could act on the same row.
type OutboxMessage struct {
	ID           string            `json:"id"`
	MessageType  OutboxMessageType `json:"message_type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Content      string            `json:"content"`
	TemplateData map[string]any    `json:"template_data,omitempty"`
	Status       OutboxStatus      `json:"status"`
	AttemptCount int               `json:"attempt_count"`
	MaxRetries   int               `json:"max_retries"`
	SendAfter    time.Time         `json:"send_after"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	LastError    *string           `json:"last_error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Exhausted reports whether the message has used up its retry budget.
func (m *OutboxMessage) Exhausted() bool {
	return m.AttemptCount >= m.MaxRetries
}
