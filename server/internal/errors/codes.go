package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/thenoname-gurl/Brain/plugin/brain"
)

// ErrorCode represents a specific error type returned by the API.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var statusByCode = map[ErrorCode]int{
	ErrCodeInvalidArgument:   http.StatusBadRequest,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeContextCanceled:   499,
	ErrCodeTimeout:           http.StatusGatewayTimeout,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// APIError represents a structured error returned to API callers.
type APIError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *APIError) WithContext(key string, value any) *APIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus returns the status code the error is served with.
func (e *APIError) HTTPStatus() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *APIError {
	return &APIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *APIError {
	return &APIError{Code: ErrCodeTimeout, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *APIError {
	return &APIError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// FromError maps any error returned by the engine or the transport onto an APIError.
func FromError(err error) *APIError {
	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &apiErr):
		return apiErr
	case stderrors.Is(err, brain.ErrInvalidArgument):
		return Wrap(err, ErrCodeInvalidArgument, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "operation timed out")
	case stderrors.Is(err, context.Canceled):
		return ContextCanceled(err)
	default:
		return Internal("internal error", err)
	}
}
