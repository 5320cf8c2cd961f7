package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrPurchaseNotFound is returned when no row matched, including a conditional
	// update whose precondition no longer holds (the purchase was already resolved).
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrForbidden means the caller may not act on the purchase
	ErrForbidden = errors.New("forbidden")
	// ErrExternalIDConflict means the provider reference already belongs to another purchase
	ErrExternalIDConflict = errors.New("external payment id already in use")
	// ErrLedgerIncrement means the balance could not be increased; the transition is rolled back
	ErrLedgerIncrement = errors.New("ledger increment failed")
	// ErrPackageNotFound is returned for an unknown catalog package id
	ErrPackageNotFound = errors.New("credit package not found")
	// ErrProviderNotConfigured is returned when a request names a provider with no credentials
	ErrProviderNotConfigured = errors.New("payment provider not configured")
)

// ValidationError reports an input that can never be stored
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SignatureVerificationError is returned when a webhook cannot be authenticated
type SignatureVerificationError struct {
	Provider string
	Cause    error
}

func (e *SignatureVerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s webhook signature verification failed: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s webhook signature verification failed", e.Provider)
}

func (e *SignatureVerificationError) Unwrap() error {
	return e.Cause
}

func NewSignatureVerificationError(provider string, cause error) *SignatureVerificationError {
	return &SignatureVerificationError{Provider: provider, Cause: cause}
}
