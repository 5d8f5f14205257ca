package service

import "errors"

// Sentinel business errors. Handlers map these to HTTP responses; anything
// else that escapes a service is a storage or gateway failure and surfaces as
// an internal error.
var (
	ErrNotFound          = errors.New("not_found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid_input")
	ErrInvalidState      = errors.New("invalid_state")
	ErrInsufficientFunds = errors.New("insufficient_funds")
)
