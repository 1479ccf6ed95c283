package core

import (
	"errors"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidType   = errors.New("invalid operation type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")

	ErrEmptyCategory    = errors.New("empty category name")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSameCategory     = errors.New("source and target category are the same")

	ErrNotFound      = errors.New("operation not found")
	ErrDuplicateID   = errors.New("duplicate operation id")
	ErrInvalidImport = errors.New("invalid import data")
	ErrPersist       = errors.New("persist document")
	ErrNotLoaded     = errors.New("ledger not loaded")
)

// ValidationError reports which rule rejected an input and why.
type ValidationError struct {
	Rule   error
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Rule.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Rule }

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(rule error, reason string) error {
	return &ValidationError{Rule: rule, Reason: reason}
}
