// Package models defines server-side data models persisted in the database
// and the request payloads accepted by the HTTP API.
package models

import (
	"strings"
	"time"
)

// Submission statuses. A row is created as StatusPendingPayment and moves to
// StatusPaid exactly once, when the payment provider reports a completed
// checkout. There are no other transitions.
const (
	StatusPendingPayment = "pending_payment"
	StatusPaid           = "paid"
)

// Submission is one customer's estimate request.
type Submission struct {
	ID           int64     `db:"id"`
	SubmissionID string    `db:"submission_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Address      string    `db:"address"`
	City         string    `db:"city"`
	Zip          string    `db:"zip"`
	Description  string    `db:"description"`
	Priorities   string    `db:"priorities"`
	Height       string    `db:"height"`
	HeightUnit   string    `db:"height_unit"`
	// PhotosFolderURL is a comma-delimited list of object-storage URLs,
	// one per uploaded photo.
	PhotosFolderURL string    `db:"photos_folder_url"`
	Status          string    `db:"status"`
	StripePaymentID string    `db:"stripe_payment_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// PhotoURLs splits the delimited photo list into individual URLs.
func (s *Submission) PhotoURLs() []string {
	if s.PhotosFolderURL == "" {
		return nil
	}
	return strings.Split(s.PhotosFolderURL, ",")
}

// JoinPhotoURLs builds the delimited form stored in PhotosFolderURL.
func JoinPhotoURLs(urls []string) string {
	return strings.Join(urls, ",")
}
