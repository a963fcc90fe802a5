package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAlreadyRegistered   = errors.New("already_registered")
	ErrNotRegistered       = errors.New("not_registered")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidCounterparty = errors.New("invalid_counterparty")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrOverFill            = errors.New("over_fill")
	ErrAuthorization       = errors.New("authorization_error")
	ErrDuplicateTrade      = errors.New("duplicate_trade")
)

// ValidationError represents a request validation failure. Validation
// failures are rejected before any state is read or written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
