package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"saas-starter/internal/domain/model"
)

type productDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	PriceAmount int64    `json:"price_amount"`
	Interval    string   `json:"interval"`
	Features    []string `json:"features"`
}

type subscriptionDTO struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"user_id"`
	ProductID           *string           `json:"product_id"`
	PolarSubscriptionID *string           `json:"polar_subscription_id"`
	Status              string            `json:"status"`
	CancelAtPeriodEnd   bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart  *time.Time        `json:"current_period_start"`
	CurrentPeriodEnd    *time.Time        `json:"current_period_end"`
	TrialStart          *time.Time        `json:"trial_start"`
	TrialEnd            *time.Time        `json:"trial_end"`
	CanceledAt          *time.Time        `json:"canceled_at"`
	Metadata            map[string]string `json:"metadata"`
	CreatedAt           time.Time         `json:"created_at"`
	Product             *productDTO       `json:"product,omitempty"`
}

func toProductDTO(p *model.Product) *productDTO {
	if p == nil {
		return nil
	}
	return &productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceAmount: p.PriceAmount,
		Interval:    string(p.Interval),
		Features:    p.Features,
	}
}

func toSubscriptionDTO(s *model.Subscription, p *model.Product) subscriptionDTO {
	return subscriptionDTO{
		ID:                  s.ID,
		UserID:              s.UserID,
		ProductID:           s.ProductID,
		PolarSubscriptionID: s.PolarSubscriptionID,
		Status:              string(s.Status),
		CancelAtPeriodEnd:   s.CancelAtPeriodEnd,
		CurrentPeriodStart:  s.CurrentPeriodStart,
		CurrentPeriodEnd:    s.CurrentPeriodEnd,
		TrialStart:          s.TrialStart,
		TrialEnd:            s.TrialEnd,
		CanceledAt:          s.CanceledAt,
		Metadata:            s.Metadata,
		CreatedAt:           s.CreatedAt,
		Product:             toProductDTO(p),
	}
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	subs, err := s.subUC.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	out := make([]subscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionDTO(sub.Subscription, sub.Product))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sub, err := s.subUC.GetByID(r.Context(), sess.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, toSubscriptionDTO(sub.Subscription, sub.Product))
}

func (s *Server) handleCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sub, err := s.subUC.GetCurrent(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if sub == nil {
		writeSuccess(w, http.StatusOK, nil)
		return
	}
	dto := toSubscriptionDTO(sub, nil)
	writeSuccess(w, http.StatusOK, dto)
}

func (s *Server) handleSyncSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sub, err := s.subUC.Sync(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if sub == nil {
		writeSuccess(w, http.StatusOK, nil)
		return
	}
	dto := toSubscriptionDTO(sub, nil)
	writeSuccess(w, http.StatusOK, dto)
}

type checkoutRequest struct {
	ProductID string `json:"product_id"`
	PriceID   string `json:"price_id"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	url, err := s.subUC.CreateCheckout(r.Context(), sess.UserID, req.ProductID, req.PriceID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.subUC.Cancel(r.Context(), sess.UserID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (s *Server) handleReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.subUC.Reactivate(r.Context(), sess.UserID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.productUC.ListActive(r.Context())
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	out := make([]*productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeSuccess(w, http.StatusOK, out)
}
