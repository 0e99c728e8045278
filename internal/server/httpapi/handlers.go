package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/payments"
)

// webhook payloads carry a full checkout session; 1 MiB is generous.
const maxWebhookBody = 1 << 20

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid input data", "malformed JSON body")
		return
	}

	if details := s.validator.Validate(&req); details != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid input data", details...)
		return
	}

	sub, err := s.intake.Process(ctx, &req)
	if errors.Is(err, common.ErrValidation) {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid input data", err.Error())
		return
	}
	if err != nil {
		s.logger.Error(ctx, "intake failed", "error", err.Error())
		s.writeError(ctx, w, http.StatusInternalServerError,
			"Failed to process submission. Please try again.")
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"success":      true,
		"submissionId": sub.SubmissionID,
		"message":      "Submission saved successfully",
	})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid input data", "malformed JSON body")
		return
	}

	if details := s.validator.Validate(&req); details != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid input data", details...)
		return
	}

	sess, err := s.payment.CreateSession(ctx, req.Email, req.SubmissionID, r.Header.Get("Origin"))
	if err != nil {
		s.writeError(ctx, w, http.StatusInternalServerError,
			"Failed to create payment session. Please try again.")
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, map[string]string{
		"url":       sess.URL,
		"sessionId": sess.ID,
	})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		s.writeError(ctx, w, http.StatusBadRequest, "No signature provided")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Could not read request body")
		return
	}

	res, err := s.reconcile.ProcessEvent(ctx, payload, sig)
	switch {
	case errors.Is(err, common.ErrInvalidSignature):
		s.writeError(ctx, w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	case errors.Is(err, common.ErrMissingMetadata):
		s.writeError(ctx, w, http.StatusBadRequest, "No submission_id in session metadata")
		return
	case err != nil:
		s.logger.Error(ctx, "webhook processing failed", "error", err.Error())
		s.writeError(ctx, w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	body := map[string]any{"received": true, "eventType": res.EventType}
	if res.EventType == payments.EventTypeCheckoutCompleted {
		body["submissionId"] = res.SubmissionID
		body["updated"] = res.Updated
	}
	s.writeJSON(ctx, w, http.StatusOK, body)
}
