package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotFound indicates that a requested resource could not be found.
// Orders owned by another user are reported with this error as well.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates a missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateLimited indicates the caller exceeded the request budget for an endpoint.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrStalePrice indicates the last price snapshot is too old to execute against.
// Safe to retry unchanged once the feed updates.
var ErrStalePrice = errors.New("price feed is stale")

// ErrInsufficientBalance indicates the balance being debited cannot cover the operation.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrConflict indicates a lost optimistic-concurrency race. Safe to retry unchanged.
var ErrConflict = errors.New("conflict")

// ErrInvalidState indicates the resource is in a state the operation cannot apply to,
// such as cancelling a filled order. Retrying the same request never succeeds.
var ErrInvalidState = errors.New("invalid state")

// ErrInternal indicates an unexpected failure. Details never leave the process.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-equivalent code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when a request is denied by the rate limiter.
type RateLimitError struct {
	Limit      int64
	ResetTime  time.Time
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// HTTPStatus maps an error from the taxonomy to the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStalePrice):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code >= http.StatusBadRequest {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStalePrice) || errors.Is(err, ErrConflict)
}

// IsInternal reports whether err falls outside the caller-visible taxonomy.
func IsInternal(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError && !errors.Is(err, ErrStalePrice)
}

// PublicMessage returns the message safe to put in a response body.
func PublicMessage(err error) string {
	if IsInternal(err) {
		return ErrInternal.Error()
	}
	return err.Error()
}
