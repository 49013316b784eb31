package adapter

import (
	"context"
	"time"
)

// --- Provider-shaped DTOs (Polar-compatible) ---

// ProviderSubscription is the billing provider's view of a subscription.
type ProviderSubscription struct {
	ID                 string
	Status             string
	CustomerID         string
	CustomerEmail      string
	ProductID          string
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	Metadata           map[string]string
}

type ProviderProduct struct {
	ID          string
	Name        string
	Description *string
	IsArchived  bool
	Prices      []ProviderPrice
	Benefits    []ProviderBenefit
}

type ProviderPrice struct {
	ID                string
	Type              string // recurring | one_time
	RecurringInterval *string
	PriceAmount       int64
	PriceCurrency     string
	IsArchived        bool
}

type ProviderBenefit struct {
	ID          string
	Description string
}

type CheckoutSession struct {
	ID            string
	URL           string
	CustomerEmail string
	ProductID     string
	PriceID       string
	Status        string
	Metadata      map[string]string
}

type CheckoutParams struct {
	ProductID     string
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// BillingGateway is the hex port for the external billing provider. All
// calls are plain REST consumed with a bearer token; list endpoints are
// paginated with an `items` envelope on the wire.
type BillingGateway interface {
	Name() string

	GetProduct(ctx context.Context, productID string) (*ProviderProduct, error)
	ListPrices(ctx context.Context, productID string) ([]ProviderPrice, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	// UncancelSubscription clears a pending cancel-at-period-end on the
	// provider side (reactivation before the period ends).
	UncancelSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	ListCustomerSubscriptions(ctx context.Context, customerEmail string) ([]ProviderSubscription, error)
}
