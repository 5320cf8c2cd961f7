package provider

import "errors"

var (
	// ErrProviderUnavailable is transient: network failure, timeout, 5xx, rate limit
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrInvalidReference is permanent: the reference is malformed or unknown to the provider
	ErrInvalidReference = errors.New("invalid payment reference")
)

// ProviderError carries provider detail; errors.Is matches its Kind
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Kind    error  `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

func NewUnavailableError(code, message, details string) *ProviderError {
	return &ProviderError{Code: code, Message: message, Details: details, Kind: ErrProviderUnavailable}
}

func NewInvalidReferenceError(code, message, details string) *ProviderError {
	return &ProviderError{Code: code, Message: message, Details: details, Kind: ErrInvalidReference}
}

// IsRetryable reports whether retrying the same call may succeed
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
