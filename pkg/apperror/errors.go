package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrInternal           = errors.New("internal server error")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrUpstream           = errors.New("platform request failed")
	ErrSessionExpired     = errors.New("session expired")
	ErrDriveNotConfigured = errors.New("Google Drive not configured")
)

// AppError carries a user-facing message next to the sentinel it wraps.
// Code is the HTTP status to answer with; zero means "derive from Err".
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is a 400 with the given message.
func Invalid(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrInvalidInput)
}

// Forbidden is a 403 with the given message.
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, ErrForbidden)
}

// FromStatus builds the error for a failed platform response.
func FromStatus(status int, message string) *AppError {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return New(http.StatusBadRequest, message, ErrBadRequest)
	case http.StatusUnauthorized:
		return New(http.StatusUnauthorized, message, ErrUnauthorized)
	case http.StatusForbidden:
		return New(http.StatusForbidden, message, ErrForbidden)
	case http.StatusNotFound:
		return New(http.StatusNotFound, message, ErrNotFound)
	case http.StatusTooManyRequests:
		return New(http.StatusTooManyRequests, message, ErrRateLimitExceeded)
	default:
		return New(http.StatusBadGateway, message, ErrUpstream)
	}
}

// Message returns the user-facing text of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDriveNotConfigured) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
