package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error shape every handler and service speaks. The HTTP
// error handler maps it straight onto the wire response.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}

	// RetryAfterSeconds is set on rate limit errors and surfaced as the
	// Retry-After header.
	RetryAfterSeconds int

	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

func NewValidationError(err error, details interface{}) *AppError {
	appErr := NewAppError(http.StatusBadRequest, err, "Invalid payload.")
	appErr.Data = details
	return appErr
}

func NewRateLimitError(retryAfterSeconds int) *AppError {
	return &AppError{
		StatusCode:        http.StatusTooManyRequests,
		Message:           "Rate limit exceeded. Try again shortly.",
		RetryAfterSeconds: retryAfterSeconds,
	}
}

func NewConfigError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, nil, message)
}

func NewUpstreamError(err error, message string) *AppError {
	return NewAppError(http.StatusBadGateway, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
