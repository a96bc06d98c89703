package lnbits

import (
	"errors"
	"fmt"
)

// Sentinel errors for wallet API failure classification. The sentinel text is
// the stable kind tag surfaced across the RPC boundary.
var (
	ErrNetwork           = errors.New("NetworkError")
	ErrAuthentication    = errors.New("AuthenticationError")
	ErrNotFound          = errors.New("NotFoundError")
	ErrValidation        = errors.New("ValidationError")
	ErrRateLimited       = errors.New("RateLimitExceeded")
	ErrAmbiguousPayment  = errors.New("AmbiguousPaymentError")
	ErrAddressResolution = errors.New("AddressResolutionError")
	ErrService           = errors.New("ServiceError")
)

// APIError is the unified error type returned by client calls. Err carries
// the classifying sentinel; the message never contains secret material.
type APIError struct {
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *APIError) Error() string {
	kind := "error"
	if e.Err != nil {
		kind = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status=%d)", kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// mapStatus maps an HTTP status code to a sentinel error. 5xx maps to
// ErrService; the caller decides whether retries still apply.
func mapStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuthentication
	case status == 404:
		return ErrNotFound
	case status == 400:
		return ErrValidation
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrService
	default:
		return fmt.Errorf("unexpected status code: %d", status)
	}
}
