package domain

import "errors"

// ValidationError carries the first human-readable violation found in an
// input, surfaced verbatim to the caller with a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) *ValidationError { return &ValidationError{Msg: msg} }

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
