package model

import (
	"encoding/json"
	"time"

	"saas-starter/internal/domain"

	"github.com/oklog/ulid/v2"
)

// WebhookEvent is one row of the append-only inbound event log.
// EventID is the provider's event id and the idempotency key: the unique
// constraint on it is what makes concurrent redeliveries safe.
type WebhookEvent struct {
	ID          string // ULID, sortable by arrival
	EventID     string
	EventType   string
	Payload     json.RawMessage
	Processed   bool
	ProcessedAt *time.Time
	Error       *string
	CreatedAt   time.Time
}

func NewWebhookEvent(eventID, eventType string, payload json.RawMessage) (*WebhookEvent, error) {
	if eventID == "" || eventType == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &WebhookEvent{
		ID:        ulid.Make().String(),
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
		Processed: false,
		CreatedAt: time.Now(),
	}, nil
}

// MarkProcessed transitions the processed flag false -> true exactly once.
func (e *WebhookEvent) MarkProcessed(at time.Time) {
	e.Processed = true
	e.ProcessedAt = &at
	e.Error = nil
}

// MarkFailed records the handler error while leaving the row unprocessed so
// the provider's redelivery can retry it.
func (e *WebhookEvent) MarkFailed(msg string) {
	e.Processed = false
	e.Error = &msg
}
