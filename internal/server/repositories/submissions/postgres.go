// Package submissions provides the PostgreSQL-backed repository for
// estimate-request rows.
package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/dbx"
	"github.com/avilrenovations/estimates/internal/server/models"
)

// PostgresRepository implements submission storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a submission with status pending_payment and scans back the
// generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions
			(submission_id, name, email, phone, address, city, zip,
			 description, priorities, height, height_unit, photos_folder_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRowContext(ctx, query,
		sub.SubmissionID, sub.Name, sub.Email, sub.Phone, sub.Address, sub.City, sub.Zip,
		sub.Description, sub.Priorities, sub.Height, sub.HeightUnit, sub.PhotosFolderURL,
		models.StatusPendingPayment,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	sub.Status = models.StatusPendingPayment
	return nil
}

// MarkPaid performs the single state transition this system knows about.
// The write is an unconditional set, so a replayed webhook event overwrites
// the row with identical values. Zero matched rows maps to ErrNotFound.
func (r *PostgresRepository) MarkPaid(ctx context.Context, submissionID, paymentID string) (*models.Submission, error) {
	query := `
		UPDATE submissions
		SET status = $2, stripe_payment_id = $3, updated_at = now()
		WHERE submission_id = $1
		RETURNING id, submission_id, name, email, phone, address, city, zip,
			description, priorities, height, height_unit, photos_folder_url,
			status, stripe_payment_id, created_at, updated_at;
	`
	var sub models.Submission
	err := r.db.QueryRowContext(ctx, query, submissionID, models.StatusPaid, paymentID).Scan(
		&sub.ID, &sub.SubmissionID, &sub.Name, &sub.Email, &sub.Phone,
		&sub.Address, &sub.City, &sub.Zip, &sub.Description, &sub.Priorities,
		&sub.Height, &sub.HeightUnit, &sub.PhotosFolderURL,
		&sub.Status, &sub.StripePaymentID, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &sub, nil
}

// GetBySubmissionID fetches one row by its public submission id.
func (r *PostgresRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error) {
	query := `
		SELECT id, submission_id, name, email, phone, address, city, zip,
			description, priorities, height, height_unit, photos_folder_url,
			status, stripe_payment_id, created_at, updated_at
		FROM submissions
		WHERE submission_id = $1;
	`
	var sub models.Submission
	err := r.db.QueryRowContext(ctx, query, submissionID).Scan(
		&sub.ID, &sub.SubmissionID, &sub.Name, &sub.Email, &sub.Phone,
		&sub.Address, &sub.City, &sub.Zip, &sub.Description, &sub.Priorities,
		&sub.Height, &sub.HeightUnit, &sub.PhotosFolderURL,
		&sub.Status, &sub.StripePaymentID, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &sub, nil
}
