package sidechannel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avilrenovations/estimates/internal/server/models"
)

// Notifier posts a small JSON document to a generic outbound webhook after
// a submission is paid. Receivers can use the idempotency key header to
// deduplicate redeliveries.
type Notifier struct {
	httpClient *http.Client
	url        string
	now        func() time.Time
}

// NewNotifier builds a notifier for the given URL.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
		now:        time.Now,
	}
}

// Notify posts the paid-submission notification.
func (n *Notifier) Notify(ctx context.Context, sub *models.Submission) error {
	payload := map[string]string{
		"submissionId": sub.SubmissionID,
		"status":       sub.Status,
		"paymentId":    sub.StripePaymentID,
		"timestamp":    n.now().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
