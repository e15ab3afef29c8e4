// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCurrency   = errors.New("incorrect currency code")
	ErrInvalidAmount     = errors.New("amount must be positive with at most two decimal places")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUpstream          = errors.New("exchange provider unavailable")
	ErrConflict          = errors.New("concurrent balance update conflict")
	ErrRateLimited       = errors.New("too many requests")
	ErrUnauthorized      = errors.New("failed to verify credentials")
)

// Refinements that also match their broader kind via errors.Is.
var (
	ErrSameCurrency  = &kindError{msg: "currencies and source must be different", kind: ErrInvalidRequest}
	ErrNoSuchHolding = &kindError{msg: "you don't have this currency", kind: ErrInsufficientFunds}
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// UpstreamError reports a failed call to the exchange provider. Status is zero
// when the provider could not be reached at all.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("exchange provider returned status %d", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("exchange provider request failed: %v", e.Err)
	}
	return ErrUpstream.Error()
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
