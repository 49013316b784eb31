package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"saas-starter/internal/usecase"
)

// Server wires the HTTP surface: the inbound webhook endpoint, the
// authenticated user-facing REST API, and the public pricing feed.
type Server struct {
	webhookUC usecase.WebhookUseCase
	subUC     usecase.SubscriptionUseCase
	userUC    usecase.UserUseCase
	productUC usecase.ProductUseCase
	verifier  SessionVerifier
	log       *zerolog.Logger
}

func NewServer(
	webhookUC usecase.WebhookUseCase,
	subUC usecase.SubscriptionUseCase,
	userUC usecase.UserUseCase,
	productUC usecase.ProductUseCase,
	verifier SessionVerifier,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		webhookUC: webhookUC,
		subUC:     subUC,
		userUC:    userUC,
		productUC: productUC,
		verifier:  verifier,
		log:       logger,
	}
}

// Router builds the chi mux with all routes and middleware attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(traceID())
	r.Use(requestLog(s.log))
	r.Use(recoverer(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Provider-facing: authenticated by signature, not session.
	r.Post("/api/webhooks/polar", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		// Public pricing feed.
		r.Get("/products", s.handleListProducts)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth(s.verifier))

			r.Post("/checkout", s.handleCreateCheckout)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", s.handleListSubscriptions)
				r.Get("/current", s.handleCurrentSubscription)
				r.Post("/sync", s.handleSyncSubscriptions)
				r.Get("/{id}", s.handleGetSubscription)
				r.Post("/{id}/cancel", s.handleCancelSubscription)
				r.Post("/{id}/reactivate", s.handleReactivateSubscription)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/{id}", s.handleGetUser)
				r.Patch("/{id}", s.handleUpdateUser)
			})
		})
	})

	return r
}
