package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common backend failures.
var (
	// Safety/Content errors
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// Rate limiting errors
	ErrRateLimit = errors.New("rate limit exceeded")

	// Model errors
	ErrInvalidModel = errors.New("invalid model")

	// Authentication errors
	ErrAuthentication = errors.New("authentication failed")

	// Network errors
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyResponse  = errors.New("empty response")
)

// ErrorCode represents a provider error code.
type ErrorCode string

const (
	ErrorCodeContentBlocked ErrorCode = "content_blocked"
	ErrorCodeRateLimit      ErrorCode = "rate_limit"
	ErrorCodeInvalidModel   ErrorCode = "invalid_model"
	ErrorCodeAuth           ErrorCode = "authentication_failed"
	ErrorCodeNetwork        ErrorCode = "network_error"
	ErrorCodeTimeout        ErrorCode = "timeout"
	ErrorCodeUnavailable    ErrorCode = "service_unavailable"
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
	ErrorCodeEmptyResponse  ErrorCode = "empty_response"
)

var codeSentinels = map[ErrorCode]error{
	ErrorCodeContentBlocked: ErrContentBlocked,
	ErrorCodeRateLimit:      ErrRateLimit,
	ErrorCodeInvalidModel:   ErrInvalidModel,
	ErrorCodeAuth:           ErrAuthentication,
	ErrorCodeNetwork:        ErrNetwork,
	ErrorCodeTimeout:        ErrTimeout,
	ErrorCodeUnavailable:    ErrServiceUnavailable,
	ErrorCodeInvalidRequest: ErrInvalidRequest,
	ErrorCodeEmptyResponse:  ErrEmptyResponse,
}

// ProviderError wraps errors with additional context.
type ProviderError struct {
	Provider   string
	Code       ErrorCode
	Message    string
	Underlying error
	Retryable  bool
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Provider, e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is match the sentinel for the error code.
func (e *ProviderError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// FromStatus maps an HTTP status code returned by a backend to a ProviderError.
func FromStatus(provider string, status int, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Underlying: err}
	switch {
	case status == 401 || status == 403:
		pe.Code, pe.Message = ErrorCodeAuth, "credentials rejected"
	case status == 404:
		pe.Code, pe.Message = ErrorCodeInvalidModel, "model or deployment not found"
	case status == 408:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeTimeout, "request timed out", true
	case status == 429:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeRateLimit, "rate limited", true
	case status >= 500:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeUnavailable, "backend unavailable", true
	default:
		pe.Code, pe.Message = ErrorCodeInvalidRequest, fmt.Sprintf("request rejected with status %d", status)
	}
	return pe
}

// FromContext maps a context error to a ProviderError, or returns nil when
// err is not a context error.
func FromContext(provider string, err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Provider: provider, Code: ErrorCodeTimeout, Message: "request timed out", Underlying: err, Retryable: true}
	case errors.Is(err, context.Canceled):
		return &ProviderError{Provider: provider, Code: ErrorCodeNetwork, Message: "request cancelled", Underlying: err}
	}
	return nil
}
