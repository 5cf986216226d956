package dto

import "net/http"

// Error codes surfaced by the API. Domain services emit the same codes
// through shared.DomainError; handlers add the transport-only ones.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidRegion      = "INVALID_REGION"
	ErrCodeInvalidYear        = "INVALID_YEAR"
	ErrCodeInvalidTerritory   = "INVALID_TERRITORY"
	ErrCodeEmptyPatch         = "EMPTY_PATCH"
	ErrCodeUnknownField       = "UNKNOWN_FIELD"
	ErrCodeEmptyFilter        = "EMPTY_FILTER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeAccountBlocked     = "ACCOUNT_BLOCKED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeBackendFailure     = "BACKEND_FAILURE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidRegion:      http.StatusBadRequest,
	ErrCodeInvalidYear:        http.StatusBadRequest,
	ErrCodeInvalidTerritory:   http.StatusBadRequest,
	ErrCodeEmptyPatch:         http.StatusBadRequest,
	ErrCodeUnknownField:       http.StatusBadRequest,
	ErrCodeEmptyFilter:        http.StatusBadRequest,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeAccountBlocked:     http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeBackendFailure:     http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting
// to 500 for anything unmapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
