package orderapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks against the typed errors below
var (
	ErrNetwork          = errors.New("orderapi: backend unreachable")
	ErrValidation       = errors.New("orderapi: request rejected by backend")
	ErrAuth             = errors.New("orderapi: not authorized")
	ErrConflict         = errors.New("orderapi: order was modified concurrently")
	ErrNotFound         = errors.New("orderapi: resource not found")
	ErrInvalidResponse  = errors.New("orderapi: invalid response")
	ErrResponseTooLarge = errors.New("orderapi: response too large")
)

// ShippingAPIError is returned for every non-2xx backend response.
// The more specific errors below wrap it.
type ShippingAPIError struct {
	OrderID    string
	Operation  string
	StatusCode int
	Message    string
}

func (e *ShippingAPIError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("%s failed: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed: HTTP %d: %s", e.Operation, e.OrderID, e.StatusCode, e.Message)
}

// ValidationError carries a 400/422 rejection, message kept verbatim
type ValidationError struct{ *ShippingAPIError }

func (e *ValidationError) Unwrap() error        { return e.ShippingAPIError }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError carries a 401/403 for the session layer to handle
type AuthError struct{ *ShippingAPIError }

func (e *AuthError) Unwrap() error        { return e.ShippingAPIError }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// Forbidden reports whether the token was valid but lacks permission
func (e *AuthError) Forbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// ConflictError means the expected order version no longer matches
type ConflictError struct{ *ShippingAPIError }

func (e *ConflictError) Unwrap() error        { return e.ShippingAPIError }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError carries a 404
type NotFoundError struct{ *ShippingAPIError }

func (e *NotFoundError) Unwrap() error        { return e.ShippingAPIError }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NetworkError means the request never produced an HTTP response
type NetworkError struct {
	OrderID   string
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Operation, e.OrderID, e.Err)
}

func (e *NetworkError) Unwrap() error        { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// NewConflictError builds a ConflictError for a version mismatch
// detected before any request was sent
func NewConflictError(orderID, operation, message string) *ConflictError {
	return &ConflictError{&ShippingAPIError{
		OrderID:    orderID,
		Operation:  operation,
		StatusCode: http.StatusConflict,
		Message:    message,
	}}
}

// classifyStatus turns a non-2xx response into the matching typed error
func classifyStatus(orderID, operation string, status int, message string) error {
	base := &ShippingAPIError{
		OrderID:    orderID,
		Operation:  operation,
		StatusCode: status,
		Message:    message,
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{base}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{base}
	case http.StatusConflict, http.StatusPreconditionFailed:
		return &ConflictError{base}
	case http.StatusNotFound:
		return &NotFoundError{base}
	default:
		return base
	}
}

// outcomeOf labels an error for the request counter
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
