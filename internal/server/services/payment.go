package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/config"
	"github.com/avilrenovations/estimates/internal/server/payments"
)

const (
	productName        = "Avil's Bathroom Evaluation"
	productDescription = "Professional bathroom renovation assessment"
)

// PaymentService starts a hosted checkout flow for the fixed evaluation
// fee, linked back to a submission via session metadata.
type PaymentService struct {
	provider payments.Provider
	cfg      *config.Config
	logger   logging.Logger
}

// NewPaymentService constructs the payment workflow.
func NewPaymentService(provider payments.Provider, cfg *config.Config, logger logging.Logger) *PaymentService {
	return &PaymentService{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("module", "payment"),
	}
}

// CreateSession looks up an existing provider customer for the email and
// creates the checkout session. The submission id is embedded as opaque
// metadata and is not checked against the database: it was generated
// server-side in the same wizard flow, and an unknown id only produces a
// logged no-op at webhook time.
//
// origin overrides the configured base for the redirect URLs; pass "" to
// use the config value.
func (s *PaymentService) CreateSession(ctx context.Context, email, submissionID, origin string) (*payments.CheckoutSession, error) {
	customerID, err := s.provider.FindCustomerID(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "customer lookup failed", "error", err.Error())
		return nil, common.ErrPaymentProvider
	}

	base := origin
	if base == "" {
		base = s.cfg.CheckoutBaseURL
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, payments.SessionParams{
		CustomerID:   customerID,
		Email:        email,
		SubmissionID: submissionID,
		SuccessURL:   fmt.Sprintf("%s/payment-success?submission=%s", base, url.QueryEscape(submissionID)),
		CancelURL:    base + "/?payment=cancelled",
		AmountCents:  s.cfg.EvaluationFeeCents,
		Currency:     s.cfg.EvaluationCurrency,
		ProductName:  productName,
		ProductDesc:  productDescription,
	})
	if err != nil {
		s.logger.Error(ctx, "checkout session creation failed",
			"submission_id", submissionID, "error", err.Error())
		return nil, common.ErrPaymentProvider
	}

	s.logger.Info(ctx, "payment session created",
		"submission_id", submissionID, "session_id", sess.ID)
	return sess, nil
}
