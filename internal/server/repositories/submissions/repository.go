package submissions

import (
	"context"

	"github.com/avilrenovations/estimates/internal/server/models"
)

type Repository interface {
	// Create inserts a new submission row and fills in the generated
	// primary key and timestamps.
	Create(ctx context.Context, sub *models.Submission) error

	// MarkPaid sets status=paid and records the payment reference on the
	// row matching submissionID, returning the updated row. Returns
	// common.ErrNotFound when no row matches.
	MarkPaid(ctx context.Context, submissionID, paymentID string) (*models.Submission, error)

	// GetBySubmissionID fetches one row by its public submission id.
	GetBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error)
}
