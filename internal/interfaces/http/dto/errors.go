package dto

import (
	"errors"
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from the shared package.
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeTenantMissing = "TENANT_REQUIRED"
	ErrCodeTenantInvalid = "TENANT_INVALID"
	ErrCodeBodyTooLarge  = "BODY_TOO_LARGE"
	ErrCodeForbidden     = "FORBIDDEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Validation errors -> 400 Bad Request
	shared.CodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeTenantMissing:  http.StatusBadRequest,
	ErrCodeTenantInvalid:  http.StatusBadRequest,

	shared.CodeNotFound: http.StatusNotFound,

	// Resource conflicts -> 409 Conflict
	shared.CodeAlreadySettled: http.StatusConflict,
	shared.CodeConflict:       http.StatusConflict,
	shared.CodeAlreadyExists:  http.StatusConflict,
	shared.CodeOptimisticLock: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInvalidState: http.StatusUnprocessableEntity,
	shared.CodeUnbalanced:   http.StatusUnprocessableEntity,

	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeForbidden:    http.StatusForbidden,

	shared.CodeInfrastructure: http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFromDomain resolves the status, code and client message for err.
// Infrastructure errors carry their underlying cause in the message.
func ErrorFromDomain(err error) (status int, code, message string) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
	}
	if domainErr.Code == shared.CodeInfrastructure {
		return GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Error()
	}
	return GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message
}
