package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/payments"
	"github.com/avilrenovations/estimates/internal/server/repositories/submissions"
)

// PostCommitRunner runs the best-effort side-channel hooks after the paid
// transition is durable.
type PostCommitRunner interface {
	Run(ctx context.Context, sub *models.Submission, sessionID string)
}

// ReconcileService verifies inbound payment events and applies the single
// pending_payment -> paid transition.
type ReconcileService struct {
	repo     submissions.Repository
	verifier payments.EventVerifier
	hooks    PostCommitRunner
	logger   logging.Logger
}

// NewReconcileService constructs the webhook workflow. hooks may be nil
// when no side channel is configured.
func NewReconcileService(repo submissions.Repository, verifier payments.EventVerifier, hooks PostCommitRunner, logger logging.Logger) *ReconcileService {
	return &ReconcileService{
		repo:     repo,
		verifier: verifier,
		hooks:    hooks,
		logger:   logger.With("module", "webhook"),
	}
}

// ReconcileResult describes the outcome of one webhook delivery.
type ReconcileResult struct {
	EventType    string
	SubmissionID string
	// Updated is false for ignored event types and for events whose
	// metadata matched no row.
	Updated bool
}

// ProcessEvent authenticates the payload, applies the transition and then
// runs the hooks. Unknown event types and unmatched submission ids are
// acknowledged without touching state; signature failures, missing
// metadata and database errors are returned to the caller.
func (s *ReconcileService) ProcessEvent(ctx context.Context, payload []byte, sigHeader string) (*ReconcileResult, error) {
	event, err := s.verifier.VerifyEvent(payload, sigHeader)
	if err != nil {
		return nil, err
	}

	if event.Type != payments.EventTypeCheckoutCompleted {
		s.logger.Info(ctx, "ignoring event", "type", event.Type)
		return &ReconcileResult{EventType: event.Type}, nil
	}

	if event.SubmissionID == "" {
		return nil, common.ErrMissingMetadata
	}

	log := s.logger.With("submission_id", event.SubmissionID, "session_id", event.SessionID)

	sub, err := s.repo.MarkPaid(ctx, event.SubmissionID, event.PaymentIntentID)
	if errors.Is(err, common.ErrNotFound) {
		// Acknowledged anyway: a retry of an event that matches no row
		// can never succeed.
		log.Warn(ctx, "no submission matched event metadata")
		return &ReconcileResult{EventType: event.Type, SubmissionID: event.SubmissionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database update failed: %w", err)
	}

	log.Info(ctx, "submission updated", "payment_id", sub.StripePaymentID)

	if s.hooks != nil {
		s.hooks.Run(ctx, sub, event.SessionID)
	}

	return &ReconcileResult{EventType: event.Type, SubmissionID: sub.SubmissionID, Updated: true}, nil
}
