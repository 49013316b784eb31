package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"saas-starter/internal/domain/ports/adapter"
)

// Known webhook event types.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventPaymentSucceeded     = "payment.succeeded"
	EventPaymentFailed        = "payment.failed"
)

// EventData is a closed variant over the known event payload shapes.
// Exactly one concrete type is produced per event; payloads of types we do
// not recognize decode to UnknownData so new provider events pass through
// without breaking ingestion.
type EventData interface {
	isEventData()
}

// SubscriptionData carries subscription.* event payloads.
type SubscriptionData struct {
	Subscription adapter.ProviderSubscription
}

// PaymentData carries payment.* event payloads.
type PaymentData struct {
	ID             string
	Amount         int64
	Currency       string
	CustomerID     string
	SubscriptionID string // empty for one-time payments
	ErrorMessage   string
}

// UnknownData is the fallback variant for unrecognized event types.
type UnknownData struct {
	Raw json.RawMessage
}

func (SubscriptionData) isEventData() {}
func (PaymentData) isEventData()      {}
func (UnknownData) isEventData()      {}

// Event is one decoded webhook delivery: envelope plus its data variant.
// It is produced exactly once at the HTTP boundary; everything downstream
// type-switches on Data instead of re-parsing JSON.
type Event struct {
	ID        string
	Type      string
	CreatedAt time.Time
	Data      EventData
	Raw       json.RawMessage
}

type wireEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt *time.Time      `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

type wirePayment struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	ErrorMessage   string `json:"error_message"`
}

// ParseEvent decodes a raw webhook body into an Event.
// Envelope problems (missing id/type, malformed JSON) are errors; an
// unrecognized type is NOT an error, it yields UnknownData.
func ParseEvent(raw []byte) (*Event, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse webhook envelope: %w", err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("webhook envelope missing id or type")
	}

	ev := &Event{
		ID:   env.ID,
		Type: env.Type,
		Raw:  raw,
	}
	if env.CreatedAt != nil {
		ev.CreatedAt = *env.CreatedAt
	}

	switch env.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionCanceled:
		var w wireSubscription
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("parse %s data: %w", env.Type, err)
		}
		if w.ID == "" {
			return nil, fmt.Errorf("%s data missing subscription id", env.Type)
		}
		ev.Data = SubscriptionData{Subscription: w.toAdapter()}
	case EventPaymentSucceeded, EventPaymentFailed:
		var w wirePayment
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("parse %s data: %w", env.Type, err)
		}
		if w.ID == "" {
			return nil, fmt.Errorf("%s data missing payment id", env.Type)
		}
		ev.Data = PaymentData{
			ID:             w.ID,
			Amount:         w.Amount,
			Currency:       w.Currency,
			CustomerID:     w.CustomerID,
			SubscriptionID: w.SubscriptionID,
			ErrorMessage:   w.ErrorMessage,
		}
	default:
		ev.Data = UnknownData{Raw: env.Data}
	}
	return ev, nil
}
