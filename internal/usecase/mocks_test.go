//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/adapter"
	"saas-starter/internal/domain/ports/repository"
	"saas-starter/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- MockTxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs the function immediately without a real transaction unless a
// test assigns WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- MockUserRepo ----

type MockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	SaveFunc        func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	FindByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- MockProductRepo ----

type MockProductRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Product

	SaveFunc                 func(ctx context.Context, tx repository.Tx, p *model.Product) error
	FindByPolarProductIDFunc func(ctx context.Context, tx repository.Tx, polarProductID string) (*model.Product, error)
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{store: make(map[string]*model.Product)}
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) FindByPolarProductID(ctx context.Context, tx repository.Tx, polarProductID string) (*model.Product, error) {
	if m.FindByPolarProductIDFunc != nil {
		return m.FindByPolarProductIDFunc(ctx, tx, polarProductID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.PolarProductID != nil && *p.PolarProductID == polarProductID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Product
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- MockSubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription // by local id

	UpsertFunc                func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	UpdateStatusByPolarIDFunc func(ctx context.Context, tx repository.Tx, polarSubID string, status model.SubscriptionStatus) error
	SetCancelAtPeriodEndFunc  func(ctx context.Context, tx repository.Tx, id string, cancel bool) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// converge by external id first, mirroring the store's unique constraint
	if s.PolarSubscriptionID != nil {
		for id, ex := range m.store {
			if ex.PolarSubscriptionID != nil && *ex.PolarSubscriptionID == *s.PolarSubscriptionID {
				cp := *s
				cp.ID = ex.ID
				m.store[id] = &cp
				return nil
			}
		}
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByPolarSubscriptionID(ctx context.Context, tx repository.Tx, polarSubID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.PolarSubscriptionID != nil && *s.PolarSubscriptionID == polarSubID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) FindEntitledByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.UserID == userID && s.Status.IsEntitled() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) UpdateStatusByPolarID(ctx context.Context, tx repository.Tx, polarSubID string, status model.SubscriptionStatus) error {
	if m.UpdateStatusByPolarIDFunc != nil {
		return m.UpdateStatusByPolarIDFunc(ctx, tx, polarSubID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.PolarSubscriptionID != nil && *s.PolarSubscriptionID == polarSubID {
			s.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockSubscriptionRepo) SetCancelAtPeriodEnd(ctx context.Context, tx repository.Tx, id string, cancel bool) error {
	if m.SetCancelAtPeriodEndFunc != nil {
		return m.SetCancelAtPeriodEndFunc(ctx, tx, id, cancel)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.CancelAtPeriodEnd = cancel
	return nil
}

// ---- MockWebhookEventRepo ----

type MockWebhookEventRepo struct {
	mu    sync.RWMutex
	store map[string]*model.WebhookEvent // by event_id

	InsertFunc        func(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error
	FindByEventIDFunc func(ctx context.Context, tx repository.Tx, eventID string) (*model.WebhookEvent, error)
	MarkProcessedFunc func(ctx context.Context, tx repository.Tx, eventID string) error
	MarkFailedFunc    func(ctx context.Context, tx repository.Tx, eventID string, errMsg string) error
}

var _ repository.WebhookEventRepository = (*MockWebhookEventRepo)(nil)

func NewMockWebhookEventRepo() *MockWebhookEventRepo {
	return &MockWebhookEventRepo{store: make(map[string]*model.WebhookEvent)}
}

func (m *MockWebhookEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[e.EventID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *e
	m.store[e.EventID] = &cp
	return nil
}

func (m *MockWebhookEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.WebhookEvent, error) {
	if m.FindByEventIDFunc != nil {
		return m.FindByEventIDFunc(ctx, tx, eventID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockWebhookEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, tx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	e.Processed = true
	e.Error = nil
	return nil
}

func (m *MockWebhookEventRepo) MarkFailed(ctx context.Context, tx repository.Tx, eventID string, errMsg string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, eventID, errMsg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	if !e.Processed {
		e.Error = &errMsg
	}
	return nil
}

func (m *MockWebhookEventRepo) ListUnprocessed(ctx context.Context, tx repository.Tx, limit int) ([]*model.WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.WebhookEvent
	for _, e := range m.store {
		if !e.Processed {
			cp := *e
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockWebhookEventRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func (m *MockWebhookEventRepo) Get(eventID string) *model.WebhookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[eventID]
}

// ---- MockBillingGateway ----

type MockBillingGateway struct {
	GetProductFunc                func(ctx context.Context, productID string) (*adapter.ProviderProduct, error)
	ListPricesFunc                func(ctx context.Context, productID string) ([]adapter.ProviderPrice, error)
	CreateCheckoutSessionFunc     func(ctx context.Context, params adapter.CheckoutParams) (*adapter.CheckoutSession, error)
	GetSubscriptionFunc           func(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error)
	CancelSubscriptionFunc        func(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error)
	UncancelSubscriptionFunc      func(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error)
	ListCustomerSubscriptionsFunc func(ctx context.Context, customerEmail string) ([]adapter.ProviderSubscription, error)
}

var _ adapter.BillingGateway = (*MockBillingGateway)(nil)

func (m *MockBillingGateway) Name() string { return "mock" }

func (m *MockBillingGateway) GetProduct(ctx context.Context, productID string) (*adapter.ProviderProduct, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, productID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockBillingGateway) ListPrices(ctx context.Context, productID string) ([]adapter.ProviderPrice, error) {
	if m.ListPricesFunc != nil {
		return m.ListPricesFunc(ctx, productID)
	}
	return nil, nil
}

func (m *MockBillingGateway) CreateCheckoutSession(ctx context.Context, params adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}
	return &adapter.CheckoutSession{ID: "co_mock", URL: "https://checkout.example/co_mock"}, nil
}

func (m *MockBillingGateway) GetSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	if m.GetSubscriptionFunc != nil {
		return m.GetSubscriptionFunc(ctx, subscriptionID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockBillingGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	if m.CancelSubscriptionFunc != nil {
		return m.CancelSubscriptionFunc(ctx, subscriptionID)
	}
	return &adapter.ProviderSubscription{ID: subscriptionID, CancelAtPeriodEnd: true}, nil
}

func (m *MockBillingGateway) UncancelSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	if m.UncancelSubscriptionFunc != nil {
		return m.UncancelSubscriptionFunc(ctx, subscriptionID)
	}
	return &adapter.ProviderSubscription{ID: subscriptionID}, nil
}

func (m *MockBillingGateway) ListCustomerSubscriptions(ctx context.Context, customerEmail string) ([]adapter.ProviderSubscription, error) {
	if m.ListCustomerSubscriptionsFunc != nil {
		return m.ListCustomerSubscriptionsFunc(ctx, customerEmail)
	}
	return nil, nil
}

// ---- MockSubscriptionUC (for the webhook pipeline tests) ----

type MockSubscriptionUC struct {
	ApplySubscriptionEventFunc func(ctx context.Context, eventType string, sub adapter.ProviderSubscription) error
	ApplyPaymentEventFunc      func(ctx context.Context, eventType string, subscriptionID string) error
}

var _ usecase.SubscriptionUseCase = (*MockSubscriptionUC)(nil)

func (m *MockSubscriptionUC) ApplySubscriptionEvent(ctx context.Context, eventType string, sub adapter.ProviderSubscription) error {
	if m.ApplySubscriptionEventFunc != nil {
		return m.ApplySubscriptionEventFunc(ctx, eventType, sub)
	}
	return nil
}

func (m *MockSubscriptionUC) ApplyPaymentEvent(ctx context.Context, eventType string, subscriptionID string) error {
	if m.ApplyPaymentEventFunc != nil {
		return m.ApplyPaymentEventFunc(ctx, eventType, subscriptionID)
	}
	return nil
}

func (m *MockSubscriptionUC) Sync(ctx context.Context, userID string) (*model.Subscription, error) {
	return nil, nil
}

func (m *MockSubscriptionUC) CreateCheckout(ctx context.Context, userID, productID, priceID string) (string, error) {
	return "", nil
}

func (m *MockSubscriptionUC) Cancel(ctx context.Context, userID, subscriptionID string) error {
	return nil
}

func (m *MockSubscriptionUC) Reactivate(ctx context.Context, userID, subscriptionID string) error {
	return nil
}

func (m *MockSubscriptionUC) ListByUser(ctx context.Context, userID string) ([]usecase.SubscriptionWithProduct, error) {
	return nil, nil
}

func (m *MockSubscriptionUC) GetByID(ctx context.Context, userID, subscriptionID string) (*usecase.SubscriptionWithProduct, error) {
	return nil, nil
}

func (m *MockSubscriptionUC) GetCurrent(ctx context.Context, userID string) (*model.Subscription, error) {
	return nil, nil
}
