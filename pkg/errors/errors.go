package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	StatusCode int           `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Fields     []string      `json:"-"`
	Internal   error         `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithRetryAfter returns a copy of the AppError carrying a retry hint for the caller.
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.RetryAfter = d
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Permission denied",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "Resource already exists",
		StatusCode: http.StatusConflict,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrCooldownActive = &AppError{
		Code:       "COOLDOWN_ACTIVE",
		Message:    "Action is on cooldown",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrUpstreamUnavailable = &AppError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    "A backing service is unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps malformed-payload failures with a helpful message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest.Code,
		Message:    message,
		StatusCode: ErrBadRequest.StatusCode,
	}
}

// NewValidationFailed reports field-level validation failures.
func NewValidationFailed(message string, fields ...string) *AppError {
	return &AppError{
		Code:       ErrValidationFailed.Code,
		Message:    message,
		StatusCode: ErrValidationFailed.StatusCode,
		Fields:     fields,
	}
}

// NewCooldownActive reports a rejected write with the remaining cooldown window.
func NewCooldownActive(message string, remaining time.Duration) *AppError {
	return &AppError{
		Code:       ErrCooldownActive.Code,
		Message:    message,
		StatusCode: ErrCooldownActive.StatusCode,
		RetryAfter: remaining,
	}
}

// NewRateLimited reports an admission-control denial with a reset hint.
func NewRateLimited(resetIn time.Duration) *AppError {
	return ErrRateLimited.WithRetryAfter(resetIn)
}

// NewUpstreamUnavailable flags a relational-store failure without leaking internals.
func NewUpstreamUnavailable(err error) *AppError {
	return ErrUpstreamUnavailable.WithInternal(err)
}
