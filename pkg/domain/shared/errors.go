// Package shared provides shared domain types and utilities.
package shared

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrToolUnavailable    = errors.New("tool unavailable")
	ErrNoFindings         = errors.New("no findings produced")
	ErrInternal           = errors.New("internal error")
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDatasetUnavailable checks if the error is a dataset availability error.
func IsDatasetUnavailable(err error) bool {
	return errors.Is(err, ErrDatasetUnavailable)
}
