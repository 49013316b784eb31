package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"saas-starter/internal/domain/ports/adapter"
	"saas-starter/internal/infra/metrics"
)

// Ensure compile-time conformance
var _ adapter.BillingGateway = (*PolarClient)(nil)

// PolarClient implements BillingGateway against Polar's REST API using
// direct HTTP calls authenticated with a bearer token.
type PolarClient struct {
	accessToken    string
	organizationID string
	baseURL        string
	client         *http.Client
}

func NewPolarClient(accessToken, organizationID, baseURL string) (*PolarClient, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("polar access token is required")
	}
	if baseURL == "" {
		baseURL = "https://api.polar.sh/v1"
	}
	return &PolarClient{
		accessToken:    accessToken,
		organizationID: organizationID,
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *PolarClient) Name() string { return "polar" }

// listEnvelope is Polar's pagination wrapper around list endpoints.
type listEnvelope struct {
	Items      json.RawMessage `json:"items"`
	Pagination struct {
		TotalCount  int `json:"total_count"`
		MaxPageSize int `json:"max_page_size"`
	} `json:"pagination"`
}

type wireSubscription struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	CustomerID         string            `json:"customer_id"`
	CustomerEmail      string            `json:"customer_email"`
	ProductID          string            `json:"product_id"`
	PriceID            string            `json:"price_id"`
	CurrentPeriodStart *time.Time        `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time        `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         *time.Time        `json:"canceled_at"`
	TrialStart         *time.Time        `json:"trial_start"`
	TrialEnd           *time.Time        `json:"trial_end"`
	Metadata           map[string]string `json:"metadata"`
}

func (w wireSubscription) toAdapter() adapter.ProviderSubscription {
	return adapter.ProviderSubscription{
		ID:                 w.ID,
		Status:             w.Status,
		CustomerID:         w.CustomerID,
		CustomerEmail:      w.CustomerEmail,
		ProductID:          w.ProductID,
		PriceID:            w.PriceID,
		CurrentPeriodStart: w.CurrentPeriodStart,
		CurrentPeriodEnd:   w.CurrentPeriodEnd,
		CancelAtPeriodEnd:  w.CancelAtPeriodEnd,
		CanceledAt:         w.CanceledAt,
		TrialStart:         w.TrialStart,
		TrialEnd:           w.TrialEnd,
		Metadata:           w.Metadata,
	}
}

type wirePrice struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"`
	RecurringInterval *string `json:"recurring_interval"`
	PriceAmount       int64   `json:"price_amount"`
	PriceCurrency     string  `json:"price_currency"`
	IsArchived        bool    `json:"is_archived"`
}

func (w wirePrice) toAdapter() adapter.ProviderPrice {
	return adapter.ProviderPrice(w)
}

type wireProduct struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	IsArchived  bool        `json:"is_archived"`
	Prices      []wirePrice `json:"prices"`
	Benefits    []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"benefits"`
}

func (w wireProduct) toAdapter() *adapter.ProviderProduct {
	p := &adapter.ProviderProduct{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		IsArchived:  w.IsArchived,
	}
	for _, pr := range w.Prices {
		p.Prices = append(p.Prices, pr.toAdapter())
	}
	for _, b := range w.Benefits {
		p.Benefits = append(p.Benefits, adapter.ProviderBenefit{ID: b.ID, Description: b.Description})
	}
	return p
}

type wireCheckout struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	CustomerEmail string            `json:"customer_email"`
	ProductID     string            `json:"product_id"`
	PriceID       string            `json:"price_id"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// do performs one API call and decodes the JSON response into out.
func (c *PolarClient) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	start := time.Now()
	resp, err := c.client.Do(req)
	metric := metricEndpoint(method, endpoint)
	if err != nil {
		metrics.ObserveBillingCall(metric, time.Since(start).Milliseconds(), false)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveBillingCall(metric, time.Since(start).Milliseconds(), false)
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveBillingCall(metric, time.Since(start).Milliseconds(), false)
		return fmt.Errorf("polar api error: status %d, body: %s", resp.StatusCode, string(raw))
	}
	metrics.ObserveBillingCall(metric, time.Since(start).Milliseconds(), true)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}

// metricEndpoint collapses resource ids and queries out of paths so label
// cardinality stays bounded.
func metricEndpoint(method, endpoint string) string {
	endpoint, _, _ = strings.Cut(endpoint, "?")
	if rest, ok := strings.CutPrefix(endpoint, "/"); ok {
		first, _, _ := strings.Cut(rest, "/")
		endpoint = "/" + first
	}
	return method + " " + endpoint
}

func (c *PolarClient) GetProduct(ctx context.Context, productID string) (*adapter.ProviderProduct, error) {
	var w wireProduct
	if err := c.do(ctx, http.MethodGet, "/products/"+productID, nil, &w); err != nil {
		return nil, err
	}
	return w.toAdapter(), nil
}

func (c *PolarClient) ListPrices(ctx context.Context, productID string) ([]adapter.ProviderPrice, error) {
	var env listEnvelope
	if err := c.do(ctx, http.MethodGet, "/products/"+productID+"/prices", nil, &env); err != nil {
		return nil, err
	}
	var items []wirePrice
	if err := json.Unmarshal(env.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	out := make([]adapter.ProviderPrice, 0, len(items))
	for _, w := range items {
		out = append(out, w.toAdapter())
	}
	return out, nil
}

func (c *PolarClient) CreateCheckoutSession(ctx context.Context, params adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	body := map[string]interface{}{
		"product_id":  params.ProductID,
		"price_id":    params.PriceID,
		"success_url": params.SuccessURL,
	}
	if params.CustomerEmail != "" {
		body["customer_email"] = params.CustomerEmail
	}
	if params.CancelURL != "" {
		body["cancel_url"] = params.CancelURL
	}
	if params.Metadata != nil {
		body["metadata"] = params.Metadata
	}

	var w wireCheckout
	if err := c.do(ctx, http.MethodPost, "/checkouts", body, &w); err != nil {
		return nil, err
	}
	metrics.IncCheckoutCreated()
	return &adapter.CheckoutSession{
		ID:            w.ID,
		URL:           w.URL,
		CustomerEmail: w.CustomerEmail,
		ProductID:     w.ProductID,
		PriceID:       w.PriceID,
		Status:        w.Status,
		Metadata:      w.Metadata,
	}, nil
}

func (c *PolarClient) GetSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	var w wireSubscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil, &w); err != nil {
		return nil, err
	}
	s := w.toAdapter()
	return &s, nil
}

func (c *PolarClient) CancelSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	var w wireSubscription
	if err := c.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, &w); err != nil {
		return nil, err
	}
	s := w.toAdapter()
	return &s, nil
}

func (c *PolarClient) UncancelSubscription(ctx context.Context, subscriptionID string) (*adapter.ProviderSubscription, error) {
	body := map[string]interface{}{
		"cancel_at_period_end": false,
	}
	var w wireSubscription
	if err := c.do(ctx, http.MethodPatch, "/subscriptions/"+subscriptionID, body, &w); err != nil {
		return nil, err
	}
	s := w.toAdapter()
	return &s, nil
}

func (c *PolarClient) ListCustomerSubscriptions(ctx context.Context, customerEmail string) ([]adapter.ProviderSubscription, error) {
	var env listEnvelope
	endpoint := "/subscriptions?customer_email=" + url.QueryEscape(customerEmail)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, err
	}
	var items []wireSubscription
	if err := json.Unmarshal(env.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	out := make([]adapter.ProviderSubscription, 0, len(items))
	for _, w := range items {
		out = append(out, w.toAdapter())
	}
	return out, nil
}
