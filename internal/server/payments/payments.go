// Package payments wraps the Stripe API behind small interfaces so the
// services can be tested with fakes.
package payments

import "context"

// EventTypeCheckoutCompleted is the only webhook event that drives a state
// transition; everything else is acknowledged and ignored.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// SessionParams describes one hosted-checkout session to create.
type SessionParams struct {
	// CustomerID reuses an existing provider customer; when empty the
	// session is created as a guest checkout for Email.
	CustomerID   string
	Email        string
	SubmissionID string
	SuccessURL   string
	CancelURL    string
	AmountCents  int64
	Currency     string
	ProductName  string
	ProductDesc  string
}

// CheckoutSession is the part of the provider's session the caller needs.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified, flattened webhook event.
type Event struct {
	Type            string
	SessionID       string
	PaymentIntentID string
	// SubmissionID is recovered from the session metadata; empty when the
	// session carried none.
	SubmissionID string
}

// Provider creates checkout sessions and looks up customers.
type Provider interface {
	FindCustomerID(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*CheckoutSession, error)
}

// EventVerifier authenticates inbound webhook payloads. Implementations must
// return common.ErrInvalidSignature (wrapped) for signature failures.
type EventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
