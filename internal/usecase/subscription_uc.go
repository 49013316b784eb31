package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/adapter"
	"saas-starter/internal/domain/ports/repository"
	"saas-starter/internal/infra/metrics"
)

// SubscriptionWithProduct joins a subscription with its product detail for
// the read API.
type SubscriptionWithProduct struct {
	Subscription *model.Subscription
	Product      *model.Product
}

// SubscriptionUseCase converges local subscription state with the billing
// provider (webhook push path and sync pull path) and runs the user-facing
// billing actions.
type SubscriptionUseCase interface {
	// Webhook-driven reconciliation.
	ApplySubscriptionEvent(ctx context.Context, eventType string, sub adapter.ProviderSubscription) error
	ApplyPaymentEvent(ctx context.Context, eventType string, subscriptionID string) error

	// Sync is the pull-based fallback for environments the provider cannot
	// reach with webhooks. Must produce the same end state as the webhook
	// path for equivalent input.
	Sync(ctx context.Context, userID string) (*model.Subscription, error)

	// Billing actions.
	CreateCheckout(ctx context.Context, userID, productID, priceID string) (string, error)
	Cancel(ctx context.Context, userID, subscriptionID string) error
	Reactivate(ctx context.Context, userID, subscriptionID string) error

	// Reads.
	ListByUser(ctx context.Context, userID string) ([]SubscriptionWithProduct, error)
	GetByID(ctx context.Context, userID, subscriptionID string) (*SubscriptionWithProduct, error)
	GetCurrent(ctx context.Context, userID string) (*model.Subscription, error)
}

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type subscriptionUC struct {
	subs     repository.SubscriptionRepository
	products repository.ProductRepository
	users    repository.UserRepository
	gateway  adapter.BillingGateway
	tm       repository.TransactionManager
	appURL   string
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	gateway adapter.BillingGateway,
	tm repository.TransactionManager,
	appURL string,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{
		subs:     subs,
		products: products,
		users:    users,
		gateway:  gateway,
		tm:       tm,
		appURL:   appURL,
		log:      logger,
	}
}

// ApplySubscriptionEvent handles subscription.created/updated/canceled.
// A missing local user or product is logged and the event skipped; the
// webhook pipeline itself still succeeds so the provider does not redeliver
// an event we can never apply.
func (uc *subscriptionUC) ApplySubscriptionEvent(ctx context.Context, eventType string, sub adapter.ProviderSubscription) error {
	switch eventType {
	case "subscription.canceled":
		return uc.applyCanceled(ctx, sub)
	default:
		return uc.upsertFromProvider(ctx, nil, sub, "webhook")
	}
}

// upsertFromProvider converges the local row to the provider's view of the
// subscription, keyed by the external subscription id.
func (uc *subscriptionUC) upsertFromProvider(ctx context.Context, tx repository.Tx, sub adapter.ProviderSubscription, source string) error {
	user, err := uc.users.FindByEmail(ctx, tx, sub.CustomerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Str("customer_email", sub.CustomerEmail).Str("subscription_id", sub.ID).
				Msg("no local user for billing customer; skipping event")
			return nil
		}
		return err
	}

	product, err := uc.products.FindByPolarProductID(ctx, tx, sub.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Str("polar_product_id", sub.ProductID).Str("subscription_id", sub.ID).
				Msg("no local product for billing product; skipping event")
			return nil
		}
		return err
	}

	status := model.SubscriptionStatus(sub.Status)
	if !status.Valid() {
		return domain.NewValidationError("unknown subscription status: " + sub.Status)
	}

	polarID := sub.ID
	s := &model.Subscription{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		ProductID:           &product.ID,
		PolarSubscriptionID: &polarID,
		Status:              status,
		CancelAtPeriodEnd:   sub.CancelAtPeriodEnd,
		CurrentPeriodStart:  sub.CurrentPeriodStart,
		CurrentPeriodEnd:    sub.CurrentPeriodEnd,
		TrialStart:          sub.TrialStart,
		TrialEnd:            sub.TrialEnd,
		CanceledAt:          sub.CanceledAt,
		Metadata:            sub.Metadata,
		CreatedAt:           time.Now(),
	}
	if err := uc.subs.Upsert(ctx, tx, s); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(status, source)
	uc.log.Info().Str("subscription_id", sub.ID).Str("status", sub.Status).Str("source", source).
		Msg("subscription upserted")
	return nil
}

// applyCanceled sets the terminal canceled state: canceled_at stamped from
// the payload (or now), cancel_at_period_end cleared.
func (uc *subscriptionUC) applyCanceled(ctx context.Context, sub adapter.ProviderSubscription) error {
	local, err := uc.subs.FindByPolarSubscriptionID(ctx, nil, sub.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Str("subscription_id", sub.ID).
				Msg("cancel event for unknown subscription; skipping event")
			return nil
		}
		return err
	}

	// Provider state wins unconditionally; the lifecycle check is advisory
	// and only flags deliveries arriving out of order.
	if !local.Status.CanTransitionTo(model.SubscriptionStatusCanceled) {
		uc.log.Warn().Str("subscription_id", sub.ID).Str("from", string(local.Status)).
			Msg("cancel event from a status outside the expected lifecycle")
	}

	at := time.Now()
	if sub.CanceledAt != nil {
		at = *sub.CanceledAt
	}
	local.Cancel(at)
	if err := uc.subs.Upsert(ctx, nil, local); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(model.SubscriptionStatusCanceled, "webhook")
	uc.log.Info().Str("subscription_id", sub.ID).Msg("subscription canceled")
	return nil
}

// ApplyPaymentEvent transitions the associated subscription's status only
// (active / past_due); period bounds stay untouched. Payments without a
// subscription id are one-time purchases and a no-op here.
func (uc *subscriptionUC) ApplyPaymentEvent(ctx context.Context, eventType string, subscriptionID string) error {
	if subscriptionID == "" {
		return nil
	}
	status := model.SubscriptionStatusActive
	if eventType == "payment.failed" {
		status = model.SubscriptionStatusPastDue
	}
	err := uc.subs.UpdateStatusByPolarID(ctx, nil, subscriptionID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Str("subscription_id", subscriptionID).Str("event_type", eventType).
				Msg("payment event for unknown subscription; skipping event")
			return nil
		}
		return err
	}
	metrics.IncSubscriptionTransition(status, "webhook")
	return nil
}

// Sync pulls the caller's subscriptions straight from the provider and
// converges local state to the first active-or-trialing one, creating the
// product row on demand. Zero provider subscriptions means "nothing to
// reconcile", never "clear local state".
func (uc *subscriptionUC) Sync(ctx context.Context, userID string) (*model.Subscription, error) {
	user, err := uc.users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	provSubs, err := uc.gateway.ListCustomerSubscriptions(ctx, user.Email)
	if err != nil {
		metrics.IncSubscriptionSync("error")
		return nil, err
	}

	var current *adapter.ProviderSubscription
	for i := range provSubs {
		if model.SubscriptionStatus(provSubs[i].Status).IsEntitled() {
			current = &provSubs[i]
			break
		}
	}
	if current == nil {
		metrics.IncSubscriptionSync("noop")
		uc.log.Debug().Str("user_id", userID).Int("provider_subs", len(provSubs)).
			Msg("sync: no active subscription at provider; leaving local state untouched")
		return nil, nil
	}

	// Product creation and subscription upsert converge atomically so a
	// crash cannot leave a product row without its subscription.
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.ensureProduct(ctx, tx, current.ProductID, current.PriceID); err != nil {
			return err
		}
		return uc.upsertFromProvider(ctx, tx, *current, "sync")
	})
	if err != nil {
		metrics.IncSubscriptionSync("error")
		return nil, err
	}
	metrics.IncSubscriptionSync("upserted")

	return uc.subs.FindByPolarSubscriptionID(ctx, nil, current.ID)
}

// ensureProduct creates the local product for a provider product id when it
// does not exist yet. Idempotent: an existing row is left alone.
func (uc *subscriptionUC) ensureProduct(ctx context.Context, tx repository.Tx, polarProductID, priceID string) error {
	_, err := uc.products.FindByPolarProductID(ctx, tx, polarProductID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	prov, err := uc.gateway.GetProduct(ctx, polarProductID)
	if err != nil {
		return err
	}

	price := pickPrice(prov.Prices, priceID)
	interval := model.BillingIntervalMonth
	var amount int64
	if price != nil {
		amount = price.PriceAmount
		if price.RecurringInterval != nil && model.BillingInterval(*price.RecurringInterval).Valid() {
			interval = model.BillingInterval(*price.RecurringInterval)
		}
	}

	p, err := model.NewProduct("", prov.Name, amount, interval)
	if err != nil {
		return err
	}
	p.PolarProductID = &prov.ID
	p.Description = prov.Description
	for _, b := range prov.Benefits {
		p.Features = append(p.Features, b.Description)
	}

	uc.log.Info().Str("polar_product_id", polarProductID).Str("name", prov.Name).
		Msg("sync: creating local product from provider catalog")
	return uc.products.Save(ctx, tx, p)
}

// pickPrice prefers the price the subscription is on, then the first live
// recurring price.
func pickPrice(prices []adapter.ProviderPrice, priceID string) *adapter.ProviderPrice {
	for i := range prices {
		if prices[i].ID == priceID {
			return &prices[i]
		}
	}
	for i := range prices {
		if !prices[i].IsArchived && prices[i].Type == "recurring" {
			return &prices[i]
		}
	}
	return nil
}

// CreateCheckout opens a provider checkout session for a local product.
func (uc *subscriptionUC) CreateCheckout(ctx context.Context, userID, productID, priceID string) (string, error) {
	if productID == "" {
		return "", domain.NewValidationError("product_id is required")
	}
	if priceID == "" {
		return "", domain.NewValidationError("price_id is required")
	}

	user, err := uc.users.FindByID(ctx, nil, userID)
	if err != nil {
		return "", err
	}
	product, err := uc.products.FindByID(ctx, nil, productID)
	if err != nil {
		return "", err
	}
	if product.PolarProductID == nil {
		return "", domain.NewValidationError("product is not purchasable")
	}

	session, err := uc.gateway.CreateCheckoutSession(ctx, adapter.CheckoutParams{
		ProductID:     *product.PolarProductID,
		PriceID:       priceID,
		CustomerEmail: user.Email,
		SuccessURL:    uc.appURL + "/dashboard/billing?success=true",
		CancelURL:     uc.appURL + "/dashboard/billing/canceled",
		Metadata:      map[string]string{"user_id": user.ID},
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// Cancel schedules cancellation at period end with the provider, then
// mirrors the flag locally. Not-owned rows are indistinguishable from
// absent ones.
func (uc *subscriptionUC) Cancel(ctx context.Context, userID, subscriptionID string) error {
	sub, err := uc.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.PolarSubscriptionID == nil {
		return domain.NewValidationError("subscription has no billing provider link")
	}
	if _, err := uc.gateway.CancelSubscription(ctx, *sub.PolarSubscriptionID); err != nil {
		return err
	}
	if err := uc.subs.SetCancelAtPeriodEnd(ctx, nil, sub.ID, true); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(sub.Status, "action")
	return nil
}

// Reactivate clears a pending cancel-at-period-end before the period ends.
func (uc *subscriptionUC) Reactivate(ctx context.Context, userID, subscriptionID string) error {
	sub, err := uc.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.PolarSubscriptionID == nil {
		return domain.NewValidationError("subscription has no billing provider link")
	}
	if _, err := uc.gateway.UncancelSubscription(ctx, *sub.PolarSubscriptionID); err != nil {
		return err
	}
	if err := uc.subs.SetCancelAtPeriodEnd(ctx, nil, sub.ID, false); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(sub.Status, "action")
	return nil
}

func (uc *subscriptionUC) ownedSubscription(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, nil, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]SubscriptionWithProduct, error) {
	subs, err := uc.subs.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriptionWithProduct, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubscriptionWithProduct{Subscription: s, Product: uc.productOf(ctx, s)})
	}
	return out, nil
}

func (uc *subscriptionUC) GetByID(ctx context.Context, userID, subscriptionID string) (*SubscriptionWithProduct, error) {
	sub, err := uc.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionWithProduct{Subscription: sub, Product: uc.productOf(ctx, sub)}, nil
}

// GetCurrent returns the newest active-or-trialing subscription, or nil
// when the user has none.
func (uc *subscriptionUC) GetCurrent(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := uc.subs.FindEntitledByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (uc *subscriptionUC) productOf(ctx context.Context, s *model.Subscription) *model.Product {
	if s.ProductID == nil {
		return nil
	}
	p, err := uc.products.FindByID(ctx, nil, *s.ProductID)
	if err != nil {
		uc.log.Warn().Err(err).Str("product_id", *s.ProductID).Msg("product lookup failed")
		return nil
	}
	return p
}
