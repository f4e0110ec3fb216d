package dto

import (
	"net/http"

	"github.com/shopadmin/backend/internal/domain/shared"
)

// API error codes. Every code has a row in codeStatus.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	// ErrCodeValidation is a rejected request body or query
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBackendValidation is the shop backend refusing a mutation
	ErrCodeBackendValidation = "ERR_BACKEND_VALIDATION"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConcurrencyConflict is a stale version token
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeReconcileInProgress = "ERR_RECONCILE_IN_PROGRESS"
	// ErrCodeInvalidState is a transition the status or carrier rules refuse
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	ErrCodeBadGateway  = "ERR_BAD_GATEWAY"
	ErrCodeTimeout     = "ERR_TIMEOUT"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var codeStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBackendValidation:   http.StatusUnprocessableEntity,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeTokenInvalid:        http.StatusUnauthorized,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeReconcileInProgress: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBadGateway:          http.StatusBadGateway,
	ErrCodeTimeout:             http.StatusGatewayTimeout,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
}

// domainCodes translates shared.DomainError codes into API codes
var domainCodes = map[string]string{
	shared.CodeNotFound:            ErrCodeNotFound,
	shared.CodeInvalidInput:        ErrCodeInvalidInput,
	shared.CodeInvalidState:        ErrCodeInvalidState,
	shared.CodeConcurrencyConflict: ErrCodeConcurrencyConflict,
}

// GetHTTPStatus returns the status for an API code; unknown codes are 500
func GetHTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps a domain code to its API code. API codes and
// unknown codes pass through.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}
