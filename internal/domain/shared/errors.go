package shared

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a domain error so callers can branch on it without
// parsing codes or messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindDuplicatePeriod ErrorKind = "DUPLICATE_PERIOD"
	KindAuthorization   ErrorKind = "AUTHORIZATION"
	KindConflict        ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind      ErrorKind `json:"kind"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another *DomainError with the same kind and code, so sentinel
// values below work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewValidationErrorf is NewValidationError with a formatted message
func NewValidationErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, code, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing referenced entity
func NewNotFoundError(resource, key string) *DomainError {
	return NewDomainError(KindNotFound, resource+"_NOT_FOUND", fmt.Sprintf("%s %s not found", strings.ToLower(resource), key))
}

// NewDuplicatePeriodError reports an installment for an already-paid period
func NewDuplicatePeriodError(chitNumber string, period int) *DomainError {
	return NewDomainError(KindDuplicatePeriod, "DUPLICATE_PERIOD",
		fmt.Sprintf("period %d of %s has already been recorded", period, chitNumber))
}

// NewAuthorizationError reports an actor lacking the required role
func NewAuthorizationError(message string) *DomainError {
	return NewDomainError(KindAuthorization, "FORBIDDEN", message)
}

// NewConflictError reports a uniqueness or referential conflict. Retryable
// conflicts may succeed if the caller simply tries again.
func NewConflictError(code, message string, retryable bool) *DomainError {
	e := NewDomainError(KindConflict, code, message)
	e.Retryable = retryable
	return e
}

// KindOf returns the kind of the first DomainError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Common domain errors
var (
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process", true)
	ErrNoActor             = NewAuthorizationError("No acting user in request context")
)
