package billing

import "errors"

var (
	// ErrInvalidSignature is returned when webhook signature validation fails.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrVerifierNotConfigured is returned when no webhook secret is set.
	ErrVerifierNotConfigured = errors.New("webhook verifier not configured")

	// ErrInvalidPayload is returned when a verified payload cannot be parsed.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)
