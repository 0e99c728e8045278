// Package httpapi exposes the estimate workflows over HTTP: intake,
// payment-session creation and the payment provider's webhook.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/payments"
	"github.com/avilrenovations/estimates/internal/server/services"
	"github.com/avilrenovations/estimates/internal/server/validation"
)

// IntakeProcessor persists a validated estimate request.
type IntakeProcessor interface {
	Process(ctx context.Context, req *models.IntakeRequest) (*models.Submission, error)
}

// SessionCreator starts a hosted checkout flow.
type SessionCreator interface {
	CreateSession(ctx context.Context, email, submissionID, origin string) (*payments.CheckoutSession, error)
}

// EventProcessor verifies and applies one webhook delivery.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, payload []byte, sigHeader string) (*services.ReconcileResult, error)
}

// Server wires the request handlers to the services.
type Server struct {
	intake    IntakeProcessor
	payment   SessionCreator
	reconcile EventProcessor
	validator *validation.Validator
	logger    logging.Logger
}

// NewServer constructs the HTTP surface.
func NewServer(intake IntakeProcessor, payment SessionCreator, reconcile EventProcessor, logger logging.Logger) *Server {
	return &Server{
		intake:    intake,
		payment:   payment,
		reconcile: reconcile,
		validator: validation.New(),
		logger:    logger.With("module", "httpapi"),
	}
}

// Router builds the chi router with CORS and request-id middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/submissions", s.handleIntake)
	r.Post("/api/payments", s.handleCreatePayment)
	r.Post("/api/stripe/webhook", s.handleStripeWebhook)

	return r
}

// cors mirrors the headers the browser client expects; the webhook route
// never sees a preflight but the shared headers are harmless there.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers",
			"authorization, x-client-info, apikey, content-type, stripe-signature")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}
