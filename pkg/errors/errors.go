package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable error category exposed to API clients.
type Kind string

// Error kinds. Every AppError belongs to exactly one kind and its HTTP status
// is derived from it.
const (
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrConflict      = errors.New("conflict")
)

// AppError is a structured application error. Kind is the coarse category,
// Code narrows it down (e.g. CART_EMPTY within VALIDATION_ERROR).
type AppError struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError whose status follows from kind.
func New(kind Kind, code, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Status:  StatusForKind(kind),
		Err:     err,
	}
}

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return New(KindNotFound, "NOT_FOUND",
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// NotFoundMessage creates a 404 error with a caller supplied message.
func NotFoundMessage(message string) *AppError {
	return New(KindNotFound, "NOT_FOUND", message, ErrNotFound)
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return New(KindConflict, "ALREADY_EXISTS",
		fmt.Sprintf("%s with %s %q already exists", resource, field, value), ErrAlreadyExists)
}

// Conflict creates a 409 error with a specific code.
func Conflict(code, message string) *AppError {
	return New(KindConflict, code, message, ErrConflict)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return New(KindValidation, "INVALID_INPUT", message, ErrInvalidInput)
}

// InvalidState creates a 400 error for a request that is well formed but
// cannot be applied to the current state of a resource.
func InvalidState(code, message string) *AppError {
	return New(KindValidation, code, message, ErrInvalidState)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return New(KindUnauthorized, "UNAUTHORIZED", message, ErrUnauthorized)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return New(KindForbidden, "FORBIDDEN", message, ErrForbidden)
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return New(KindRateLimited, "RATE_LIMITED", message, nil)
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return New(KindInternal, "INTERNAL_ERROR", "an internal error occurred", err)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the error kind for err, falling back to the sentinel
// errors when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidState):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return StatusForKind(KindOf(err))
}
