package web

import (
	"errors"
	"io"
	"net/http"

	"saas-starter/internal/domain"
	"saas-starter/internal/infra/billing"
)

type webhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// handleWebhook accepts one provider delivery. The raw body is read first
// because the signature covers the exact bytes on the wire.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid webhook payload"})
		return
	}

	signature := billing.ExtractSignature(r.Header)
	res, err := s.webhookUC.HandleDelivery(r.Context(), rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing webhook signature"})
		case errors.Is(err, domain.ErrInvalidSignature):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid webhook signature"})
		case errors.Is(err, domain.ErrInvalidArgument):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid webhook payload"})
		default:
			// Processing failed after the event was recorded: answer 500 so
			// the provider's redelivery policy retries it.
			s.log.Error().Err(err).Msg("webhook processing failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Received: true, Duplicate: res.Duplicate})
}
