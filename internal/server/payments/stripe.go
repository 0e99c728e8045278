package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/avilrenovations/estimates/internal/common"
)

// StripeClient implements Provider and EventVerifier over the official
// Stripe client.
type StripeClient struct {
	api           *client.API
	webhookSecret string
}

// NewStripeClient builds a client bound to the given secret key and webhook
// signing secret.
func NewStripeClient(secretKey, webhookSecret string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api, webhookSecret: webhookSecret}
}

// FindCustomerID returns the id of an existing customer with the given
// email, or "" when none exists.
func (c *StripeClient) FindCustomerID(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := c.api.Customers.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("customer lookup: %w", err)
	}
	return "", nil
}

// CreateCheckoutSession creates a hosted checkout session for the fixed
// evaluation fee, carrying the submission id as opaque metadata so the
// webhook can recover it without a separate lookup.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p SessionParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.ProductName),
						Description: stripe.String(p.ProductDesc),
					},
					UnitAmount: stripe.Int64(p.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("submission_id", p.SubmissionID)

	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(p.Email)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header against the signing secret
// and flattens the event. API version mismatches are tolerated so that
// account-level version pinning does not break delivery.
func (c *StripeClient) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}

	e := &Event{Type: string(event.Type)}
	if e.Type != EventTypeCheckoutCompleted {
		return e, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	e.SessionID = sess.ID
	e.SubmissionID = sess.Metadata["submission_id"]
	if sess.PaymentIntent != nil {
		e.PaymentIntentID = sess.PaymentIntent.ID
	}
	return e, nil
}
