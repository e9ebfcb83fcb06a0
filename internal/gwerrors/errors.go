// Package gwerrors defines the normalized error taxonomy shared by the
// dispatcher, the upstream clients, and the HTTP surface. Every failure a
// client can observe collapses to one of the kinds below before emission.
package gwerrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Kind identifies a normalized error category.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindTimeout        Kind = "TIMEOUT"
	KindUnavailable    Kind = "SERVICE_UNAVAILABLE"
	KindCircuitOpen    Kind = "CIRCUIT_OPEN"
	KindInvalidInput   Kind = "INVALID_INPUT"
	KindInternal       Kind = "INTERNAL_ERROR"
	KindUnknown        Kind = "UNKNOWN_ERROR"
)

// HTTPStatus returns the HTTP status code a kind maps to.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidInput:
		return 400
	case KindAuthentication:
		return 401
	case KindRateLimited:
		return 429
	case KindUnavailable, KindCircuitOpen:
		return 503
	case KindTimeout:
		return 504
	default:
		return 500
	}
}

// Retryable reports whether callers may retry an error of this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindUnavailable, KindCircuitOpen:
		return true
	default:
		return false
	}
}

// FieldError names a single offending argument in a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the normalized gateway error. RequestID is stamped by the
// dispatcher before the error reaches a client; RetryAfter and NextAttempt
// are populated only for RATE_LIMITED and CIRCUIT_OPEN respectively.
type Error struct {
	Kind        Kind
	Message     string
	RequestID   string
	Details     []FieldError
	RetryAfter  time.Duration
	NextAttempt time.Time
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is safe to retry.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// HTTPStatus returns the HTTP status code the error maps to.
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// WithRequestID returns a copy of the error stamped with a correlation id.
func (e *Error) WithRequestID(requestID string) *Error {
	clone := *e
	clone.RequestID = requestID
	return &clone
}

// Validation builds a VALIDATION_ERROR carrying per-field messages.
func Validation(message string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Authentication builds an AUTHENTICATION_ERROR.
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// RateLimited builds a RATE_LIMITED error with the upstream's retry-after hint.
func RateLimited(message string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: message, RetryAfter: retryAfter}
}

// Timeout builds a TIMEOUT error.
func Timeout(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

// Unavailable builds a SERVICE_UNAVAILABLE error.
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// CircuitOpen builds a CIRCUIT_OPEN error carrying the next admission time.
func CircuitOpen(name string, nextAttempt time.Time) *Error {
	return &Error{
		Kind:        KindCircuitOpen,
		Message:     fmt.Sprintf("circuit breaker %q is open, next attempt at %s", name, nextAttempt.UTC().Format(time.RFC3339)),
		NextAttempt: nextAttempt,
	}
}

// InvalidInput builds an INVALID_INPUT error. The message must stay vague:
// it is shown to clients and must not echo the matched pattern.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Internal builds an INTERNAL_ERROR.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Unknown builds the UNKNOWN_ERROR fallback.
func Unknown(message string, err error) *Error {
	return &Error{Kind: KindUnknown, Message: message, Err: err}
}

// KindForStatus maps an upstream HTTP status code to a taxonomy kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 400 || status == 422:
		return KindValidation
	case status == 401 || status == 403:
		return KindAuthentication
	case status == 429:
		return KindRateLimited
	case status == 408 || status == 504:
		return KindTimeout
	case status == 502 || status == 503:
		return KindUnavailable
	case status >= 500:
		return KindInternal
	default:
		return KindUnknown
	}
}

// FromStatus builds the taxonomy error for an upstream HTTP status. The
// retryAfter hint is kept only for 429 responses.
func FromStatus(status int, message string, retryAfter time.Duration) *Error {
	kind := KindForStatus(status)
	e := &Error{Kind: kind, Message: message}
	if kind == KindRateLimited {
		e.RetryAfter = retryAfter
	}
	return e
}

// Normalize collapses an arbitrary error into the taxonomy. Errors that are
// already normalized pass through unchanged; context deadlines and timeouts
// become TIMEOUT; transport-level failures become SERVICE_UNAVAILABLE;
// anything else is UNKNOWN_ERROR.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout("request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return Timeout("request canceled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout("network timeout", err)
		}
		return Unavailable("upstream unreachable", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return Timeout("network timeout", err)
		}
		return Unavailable("upstream unreachable", err)
	}

	return Unknown("unexpected error", err)
}
