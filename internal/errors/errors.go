package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrNotFound      ErrorType = "NOT_FOUND"
	ErrInvalidFormat ErrorType = "INVALID_FORMAT"
	ErrUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrMissingScope  ErrorType = "MISSING_SCOPE"
	ErrRateLimit     ErrorType = "RATE_LIMIT"
	ErrNetwork       ErrorType = "NETWORK"
	ErrAPI           ErrorType = "API"
	ErrInternal      ErrorType = "INTERNAL"
	ErrConfig        ErrorType = "CONFIG"

	// ErrSyncInProgress is returned when a sync of the same repository is already running
	ErrSyncInProgress ErrorType = "SYNC_IN_PROGRESS"
)

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// RateLimitError represents a GitHub API rate limit error
type RateLimitError struct {
	ResetTime time.Time
	Limit     int
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %v (limit: %d, remaining: %d)",
		e.ResetTime, e.Limit, e.Remaining)
}

// NewRateLimitError creates a RATE_LIMIT AppError carrying the reset time
func NewRateLimitError(resetTime time.Time, limit, remaining int) *AppError {
	return New(ErrRateLimit, "rate limit exceeded", &RateLimitError{
		ResetTime: resetTime,
		Limit:     limit,
		Remaining: remaining,
	})
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewInvalidFormatError creates an error for malformed identifiers
func NewInvalidFormatError(message string, err error) *AppError {
	return New(ErrInvalidFormat, message, err)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return New(ErrUnauthorized, message, err)
}

// NewMissingScopeError is returned when the credential lacks a required permission
func NewMissingScopeError(message string, err error) *AppError {
	return New(ErrMissingScope, message, err)
}

// NewNetworkError creates a transient, retryable error
func NewNetworkError(message string, err error) *AppError {
	return New(ErrNetwork, message, err)
}

// NewAPIError creates a generic forge API error
func NewAPIError(message string, err error) *AppError {
	return New(ErrAPI, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return New(ErrConfig, message, err)
}

// NewSyncInProgressError creates an error for a repository that is already syncing
func NewSyncInProgressError(repository string) *AppError {
	return New(ErrSyncInProgress, fmt.Sprintf("sync already in progress for repository %s", repository), nil)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func isType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrNotFound)
}

// IsRateLimit checks if the error is a rate limit error
func IsRateLimit(err error) bool {
	return isType(err, ErrRateLimit)
}

// IsInvalidFormat checks if the error is an invalid format error
func IsInvalidFormat(err error) bool {
	return isType(err, ErrInvalidFormat)
}

// IsUnauthorized covers both missing credentials and missing scopes
func IsUnauthorized(err error) bool {
	return isType(err, ErrUnauthorized) || isType(err, ErrMissingScope)
}

// IsSyncInProgress checks if the error reports a concurrent sync
func IsSyncInProgress(err error) bool {
	return isType(err, ErrSyncInProgress)
}

// IsRetryable reports whether a later attempt may succeed
func IsRetryable(err error) bool {
	return isType(err, ErrNetwork) || isType(err, ErrRateLimit)
}

// RateLimitReset returns the reset time carried by a rate limit error
func RateLimitReset(err error) (time.Time, bool) {
	var rl *RateLimitError
	if stderrors.As(err, &rl) {
		return rl.ResetTime, true
	}
	return time.Time{}, false
}
