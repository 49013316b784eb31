package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/repository"
	"saas-starter/internal/infra/billing"
	"saas-starter/internal/infra/logging"
	"saas-starter/internal/infra/metrics"
)

// DeliveryResult tells the HTTP layer how a webhook delivery ended.
type DeliveryResult struct {
	EventID   string
	EventType string
	Duplicate bool
}

// WebhookUseCase is the inbound webhook pipeline: authenticate the raw
// delivery, decode it once, deduplicate, persist, dispatch, mark processed.
type WebhookUseCase interface {
	HandleDelivery(ctx context.Context, rawBody []byte, signature string) (*DeliveryResult, error)
}

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type webhookUC struct {
	events repository.WebhookEventRepository
	subs   SubscriptionUseCase
	secret string
	log    *zerolog.Logger
}

func NewWebhookUseCase(
	events repository.WebhookEventRepository,
	subs SubscriptionUseCase,
	webhookSecret string,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{events: events, subs: subs, secret: webhookSecret, log: logger}
}

// HandleDelivery implements the at-most-once pipeline.
//
// Order matters: the signature is checked before any parsing so parse
// errors cannot become a timing or oracle channel for unauthenticated
// callers. The event row is persisted unprocessed BEFORE dispatch, so a
// crash between persist and process leaves a recoverable unprocessed row
// rather than a silently lost event.
func (uc *webhookUC) HandleDelivery(ctx context.Context, rawBody []byte, signature string) (*DeliveryResult, error) {
	if signature == "" {
		metrics.IncWebhook("", "invalid_signature")
		return nil, fmt.Errorf("missing webhook signature: %w", domain.ErrUnauthorized)
	}
	if !billing.VerifySignature(rawBody, signature, uc.secret) {
		metrics.IncWebhook("", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}

	event, err := billing.ParseEvent(rawBody)
	if err != nil {
		metrics.IncWebhook("", "bad_payload")
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}

	ctx = logging.WithEventID(ctx, event.ID)
	l := logging.With(ctx, uc.log)

	res := &DeliveryResult{EventID: event.ID, EventType: event.Type}

	// Fast dedup path: a redelivery of an already-recorded event id is
	// acknowledged without reprocessing, whether or not its payload mutated.
	if _, err := uc.events.FindByEventID(ctx, nil, event.ID); err == nil {
		l.Info().Str("event_type", event.Type).
			Msg("duplicate webhook delivery; already recorded")
		metrics.IncWebhook(event.Type, "duplicate")
		res.Duplicate = true
		return res, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	row, err := model.NewWebhookEvent(event.ID, event.Type, event.Raw)
	if err != nil {
		return nil, err
	}
	if err := uc.events.Insert(ctx, nil, row); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Concurrent delivery of the same event id: both passed the
			// lookup, the unique constraint let exactly one insert win.
			metrics.IncWebhook(event.Type, "duplicate")
			res.Duplicate = true
			return res, nil
		}
		return nil, err
	}

	start := time.Now()
	if err := uc.dispatch(ctx, event); err != nil {
		msg := err.Error()
		if mErr := uc.events.MarkFailed(ctx, nil, event.ID, msg); mErr != nil {
			l.Error().Err(mErr).Msg("failed to record handler error")
		}
		metrics.IncWebhook(event.Type, "error")
		metrics.ObserveWebhookProcessing(event.Type, time.Since(start).Milliseconds(), false)
		// Propagate: the 500 tells the provider to redeliver; the row stays
		// unprocessed for that retry.
		return nil, err
	}

	if err := uc.events.MarkProcessed(ctx, nil, event.ID); err != nil {
		return nil, err
	}
	metrics.IncWebhook(event.Type, "ok")
	metrics.ObserveWebhookProcessing(event.Type, time.Since(start).Milliseconds(), true)
	return res, nil
}

// dispatch routes a decoded event to its handler. Unknown variants are
// logged and acknowledged, keeping us forward-compatible with provider
// additions.
func (uc *webhookUC) dispatch(ctx context.Context, event *billing.Event) error {
	switch data := event.Data.(type) {
	case billing.SubscriptionData:
		return uc.subs.ApplySubscriptionEvent(ctx, event.Type, data.Subscription)
	case billing.PaymentData:
		return uc.subs.ApplyPaymentEvent(ctx, event.Type, data.SubscriptionID)
	case billing.UnknownData:
		logging.With(ctx, uc.log).Info().Str("event_type", event.Type).
			Msg("unhandled webhook event type; acknowledged")
		return nil
	default:
		return fmt.Errorf("unreachable event data variant %T", data)
	}
}
