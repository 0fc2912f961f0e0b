package shared

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeCollaborator  = "COLLABORATOR_ERROR"
	CodeData          = "DATA_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.cause == nil && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying an underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConfiguration = NewDomainError(CodeConfiguration, "Invalid configuration")
	ErrCollaborator  = NewDomainError(CodeCollaborator, "Collaborator call failed")
	ErrData          = NewDomainError(CodeData, "Malformed data")
)

// NewConfigurationError reports a missing or unresolvable setting
func NewConfigurationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConfiguration, fmt.Sprintf(format, args...))
}

// NewDataError reports a malformed persisted record
func NewDataError(format string, args ...any) *DomainError {
	return NewDomainError(CodeData, fmt.Sprintf(format, args...))
}

// NewCollaboratorError wraps a failure raised by an external collaborator.
// The original error stays reachable through errors.Is / errors.As.
func NewCollaboratorError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var de *DomainError
	if errors.As(cause, &de) {
		// already classified by the collaborator
		return fmt.Errorf("%s: %w", op, cause)
	}
	return WrapDomainError(CodeCollaborator, op+" failed", cause)
}

// IsCode reports whether err carries a DomainError with the given code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
