// Package apperrors defines the error taxonomy shared by services,
// middlewares and controllers. Every failure a caller can act on is one of
// these codes; anything else is reported as an internal error.
package apperrors

import "fmt"

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyInFlight = "IDEMPOTENCY_IN_FLIGHT"
)

// Error is a domain-level error with a stable code and optional details.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, resource+" not found")
}

// InvalidState reports a rejected transition together with the state that
// refused it.
func InvalidState(entity, from, to string) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// IdempotencyConflict means the key was reused with a different request.
// Callers must not retry with this key.
func IdempotencyConflict(key string) *Error {
	return &Error{
		Code:    CodeIdempotencyConflict,
		Message: "Idempotency-Key reused with a different request",
		Details: map[string]any{"key": key, "retryable": false},
	}
}

// IdempotencyInFlight means the first request carrying this key has not
// finished yet. Callers may retry shortly.
func IdempotencyInFlight(key string) *Error {
	return &Error{
		Code:    CodeIdempotencyInFlight,
		Message: "request with this Idempotency-Key is still being processed",
		Details: map[string]any{"key": key, "retryable": true},
	}
}

// HTTPStatus maps an error code to the status the HTTP layer should send.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return 422
	case CodeNotFound:
		return 404
	case CodeInvalidState, CodeIdempotencyConflict, CodeIdempotencyInFlight:
		return 409
	}
	return 500
}
