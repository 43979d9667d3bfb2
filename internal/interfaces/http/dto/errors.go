package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in the response envelope. Domain errors pass their
// own code through; these cover the codes the HTTP layer produces itself
// and the ones that need an explicit status.

// General error codes
const (
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeUnavailable = "UNAVAILABLE"
)

// Input error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeAuthFailed      = "AUTH_FAILED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeTokenMaxRefresh = "TOKEN_MAX_REFRESH"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeAlreadyPaid        = "ALREADY_PAID"
	ErrCodeExceedsOutstanding = "EXCEEDS_OUTSTANDING"
	ErrCodeMissingTaxID       = "MISSING_TAX_ID"
	ErrCodePayloadTooLong     = "PAYLOAD_FIELD_TOO_LONG"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeAuthFailed:      http.StatusUnauthorized,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:  http.StatusUnprocessableEntity,
	ErrCodeAlreadyPaid:        http.StatusUnprocessableEntity,
	ErrCodeExceedsOutstanding: http.StatusUnprocessableEntity,
	ErrCodeMissingTaxID:       http.StatusUnprocessableEntity,
	ErrCodePayloadTooLong:     http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes without an explicit entry fall back on their naming family:
// INVALID_* is a 400, *_NOT_FOUND a 404, ALREADY_* a 409 and TOKEN_* a 401.
// Anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	case strings.HasPrefix(code, "TOKEN_"):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
