package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so wrapped
// errors built from a sentinel still match it with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes of the generation taxonomy
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeIntegrity     = "INTEGRITY_ERROR"
	CodeCancelled     = "CANCELLED"
	CodeNotFound      = "NOT_FOUND"
)

// Common domain errors
var (
	// ErrValidation marks a malformed request, rejected before any work starts.
	ErrValidation = NewDomainError(CodeValidation, "Invalid generation request")
	// ErrConfiguration marks a programmer error such as a missing parameter entry.
	ErrConfiguration = NewDomainError(CodeConfiguration, "Invalid generator configuration")
	// ErrIntegrity marks a run whose cross references cannot be satisfied.
	ErrIntegrity = NewDomainError(CodeIntegrity, "Referential integrity violated")
	// ErrCancelled marks a run stopped cooperatively between days.
	ErrCancelled = NewDomainError(CodeCancelled, "Generation cancelled")
	ErrNotFound  = NewDomainError(CodeNotFound, "Resource not found")
)

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewConfigurationError creates a configuration error with a formatted message
func NewConfigurationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConfiguration, fmt.Sprintf(format, args...))
}

// NewIntegrityError creates an integrity error with a formatted message
func NewIntegrityError(format string, args ...any) *DomainError {
	return NewDomainError(CodeIntegrity, fmt.Sprintf(format, args...))
}

// NewCancelledError creates a cancellation error with a formatted message
func NewCancelledError(format string, args ...any) *DomainError {
	return NewDomainError(CodeCancelled, fmt.Sprintf(format, args...))
}
