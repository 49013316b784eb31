//go:build !integration

package web

import (
	"context"

	"github.com/rs/zerolog"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/adapter"
	"saas-starter/internal/domain/ports/repository"
	"saas-starter/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// ---- stub session verifier ----

type stubVerifier struct {
	session *repository.Session
	err     error
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*repository.Session, error) {
	if v.err != nil {
		return nil, v.err
	}
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	return v.session, nil
}

func okVerifier(userID string) *stubVerifier {
	return &stubVerifier{session: &repository.Session{ID: "sess-1", UserID: userID, Email: "jane@example.com"}}
}

// ---- mock use cases ----

type mockWebhookUC struct {
	HandleDeliveryFunc func(ctx context.Context, rawBody []byte, signature string) (*usecase.DeliveryResult, error)
}

func (m *mockWebhookUC) HandleDelivery(ctx context.Context, rawBody []byte, signature string) (*usecase.DeliveryResult, error) {
	if m.HandleDeliveryFunc != nil {
		return m.HandleDeliveryFunc(ctx, rawBody, signature)
	}
	return &usecase.DeliveryResult{EventID: "evt_1", EventType: "subscription.created"}, nil
}

type mockSubUC struct {
	SyncFunc           func(ctx context.Context, userID string) (*model.Subscription, error)
	CreateCheckoutFunc func(ctx context.Context, userID, productID, priceID string) (string, error)
	CancelFunc         func(ctx context.Context, userID, subscriptionID string) error
	ReactivateFunc     func(ctx context.Context, userID, subscriptionID string) error
	ListByUserFunc     func(ctx context.Context, userID string) ([]usecase.SubscriptionWithProduct, error)
	GetByIDFunc        func(ctx context.Context, userID, subscriptionID string) (*usecase.SubscriptionWithProduct, error)
	GetCurrentFunc     func(ctx context.Context, userID string) (*model.Subscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubUC)(nil)

func (m *mockSubUC) ApplySubscriptionEvent(ctx context.Context, eventType string, sub adapter.ProviderSubscription) error {
	return nil
}

func (m *mockSubUC) ApplyPaymentEvent(ctx context.Context, eventType string, subscriptionID string) error {
	return nil
}

func (m *mockSubUC) Sync(ctx context.Context, userID string) (*model.Subscription, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubUC) CreateCheckout(ctx context.Context, userID, productID, priceID string) (string, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, userID, productID, priceID)
	}
	return "https://checkout.example/co_1", nil
}

func (m *mockSubUC) Cancel(ctx context.Context, userID, subscriptionID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, userID, subscriptionID)
	}
	return nil
}

func (m *mockSubUC) Reactivate(ctx context.Context, userID, subscriptionID string) error {
	if m.ReactivateFunc != nil {
		return m.ReactivateFunc(ctx, userID, subscriptionID)
	}
	return nil
}

func (m *mockSubUC) ListByUser(ctx context.Context, userID string) ([]usecase.SubscriptionWithProduct, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubUC) GetByID(ctx context.Context, userID, subscriptionID string) (*usecase.SubscriptionWithProduct, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, subscriptionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSubUC) GetCurrent(ctx context.Context, userID string) (*model.Subscription, error) {
	if m.GetCurrentFunc != nil {
		return m.GetCurrentFunc(ctx, userID)
	}
	return nil, nil
}

type mockUserUC struct {
	GetFunc    func(ctx context.Context, callerID, userID string) (*model.User, error)
	UpdateFunc func(ctx context.Context, callerID, userID string, params usecase.UpdateUserParams) (*model.User, error)
}

var _ usecase.UserUseCase = (*mockUserUC)(nil)

func (m *mockUserUC) Get(ctx context.Context, callerID, userID string) (*model.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, callerID, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserUC) Update(ctx context.Context, callerID, userID string, params usecase.UpdateUserParams) (*model.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, callerID, userID, params)
	}
	return nil, domain.ErrNotFound
}

type mockProductUC struct {
	ListActiveFunc func(ctx context.Context) ([]*model.Product, error)
}

var _ usecase.ProductUseCase = (*mockProductUC)(nil)

func (m *mockProductUC) ListActive(ctx context.Context) ([]*model.Product, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func newTestServer(webhookUC usecase.WebhookUseCase, subUC usecase.SubscriptionUseCase, userUC usecase.UserUseCase, productUC usecase.ProductUseCase, verifier SessionVerifier) *Server {
	if webhookUC == nil {
		webhookUC = &mockWebhookUC{}
	}
	if subUC == nil {
		subUC = &mockSubUC{}
	}
	if userUC == nil {
		userUC = &mockUserUC{}
	}
	if productUC == nil {
		productUC = &mockProductUC{}
	}
	if verifier == nil {
		verifier = okVerifier("user-1")
	}
	return NewServer(webhookUC, subUC, userUC, productUC, verifier, newTestLogger())
}
