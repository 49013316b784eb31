package repository

import (
	"context"

	"saas-starter/internal/domain/model"
)

type WebhookEventRepository interface {
	// Insert persists a new event row. Returns domain.ErrAlreadyExists when
	// the event id is already recorded (unique constraint), which callers
	// treat as a duplicate delivery.
	Insert(ctx context.Context, tx Tx, e *model.WebhookEvent) error
	FindByEventID(ctx context.Context, tx Tx, eventID string) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, tx Tx, eventID string) error
	MarkFailed(ctx context.Context, tx Tx, eventID string, errMsg string) error
	ListUnprocessed(ctx context.Context, tx Tx, limit int) ([]*model.WebhookEvent, error)
}
