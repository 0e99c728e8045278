// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation failed")

	// Webhook authenticity errors.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMissingMetadata  = errors.New("no submission_id in event metadata")

	// Payment provider errors (details stay in server logs).
	ErrPaymentProvider = errors.New("failed to create payment session")
)
