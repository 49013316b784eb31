package repository

import (
	"context"

	"saas-starter/internal/domain/model"
)

type SubscriptionRepository interface {
	// Upsert inserts or updates keyed by polar_subscription_id. The store's
	// unique constraint on that column is the only guard against concurrent
	// deliveries of the same subscription.
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByPolarSubscriptionID(ctx context.Context, tx Tx, polarSubID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	FindEntitledByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// UpdateStatusByPolarID transitions status only; period bounds untouched.
	UpdateStatusByPolarID(ctx context.Context, tx Tx, polarSubID string, status model.SubscriptionStatus) error
	SetCancelAtPeriodEnd(ctx context.Context, tx Tx, id string, cancel bool) error
}
