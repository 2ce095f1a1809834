package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context and mapped to HTTP status by the dto package.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeAlreadyExists  = "ALREADY_EXISTS"
	CodeAlreadySettled = "ALREADY_SETTLED"
	CodeConflict       = "CONFLICT"
	CodeOptimisticLock = "OPTIMISTIC_LOCK_ERROR"
	CodeInvalidState   = "INVALID_STATE"
	CodeUnbalanced     = "UNBALANCED_ENTRY"
	CodeInfrastructure = "INFRASTRUCTURE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so the sentinels below
// work with errors.Is even when a call site builds its own message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports a missing or invalid caller supplied value
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a referenced resource that is absent for the tenant
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewInfrastructureError wraps a driver, storage or network failure. The
// underlying message is preserved in Error().
func NewInfrastructureError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeInfrastructure,
		Message: op + " failed",
		Err:     err,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrAlreadySettled      = NewDomainError(CodeAlreadySettled, "Title has no pending balance")
	ErrConflict            = NewDomainError(CodeConflict, "Resource conflicts with existing state")
	ErrConcurrencyConflict = NewDomainError(CodeOptimisticLock, "The record has been modified by another transaction")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUnbalancedEntry     = NewDomainError(CodeUnbalanced, "Journal entry debits and credits differ")
	ErrInfrastructure      = NewDomainError(CodeInfrastructure, "Infrastructure failure")
)

// IsConflict reports whether err is one of the conflict family codes
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrConcurrencyConflict)
}
