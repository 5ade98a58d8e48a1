// Package apperr defines the error taxonomy shared by the integration layer
// and the HTTP API. Every failure that crosses an integration boundary is
// normalized to exactly one Kind before it is propagated.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Kind classifies a failure into one of a closed set of categories.
type Kind string

const (
	KindNetwork    Kind = "NETWORK"
	KindAuth       Kind = "AUTH"
	KindValidation Kind = "VALIDATION"
	KindPermission Kind = "PERMISSION"
	KindNotFound   Kind = "NOT_FOUND"
	KindServer     Kind = "SERVER"
	KindTimeout    Kind = "TIMEOUT"
	KindUnknown    Kind = "UNKNOWN"
)

// Error is a classified application error. Details is an optional structured
// payload, e.g. per-field validation messages or a raw vendor response.
type Error struct {
	Message   string
	Kind      Kind
	Details   any
	Timestamp time.Time
	cause     error
}

// New creates a classified error with the current timestamp.
func New(kind Kind, message string) *Error {
	return &Error{
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithDetails attaches a structured payload and returns the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// Wrap records the underlying cause and returns the error.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the Kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Retryable reports whether an error of the given kind is eligible for retry.
// Auth, permission, validation and not-found failures are deterministic and
// never retried.
func (k Kind) Retryable() bool {
	switch k {
	case KindAuth, KindPermission, KindValidation, KindNotFound:
		return false
	default:
		return true
	}
}

// FromStatus maps an HTTP status code to a Kind.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindNetwork
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindUnknown
	}
}

// StatusError is raised by vendor clients when the remote API answers with a
// non-2xx status. It preserves the vendor's status code and response body so
// Normalize can classify it.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// Normalize classifies an arbitrary error into the taxonomy. Classification
// priority: already classified; connectivity failure; timeout; embedded HTTP
// status; otherwise UNKNOWN.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return New(KindTimeout, "Request timed out").Wrap(err)
		}
		return New(KindNetwork, "Network connection failed").Wrap(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, "Request timed out").Wrap(err)
	}

	var se *StatusError
	if errors.As(err, &se) {
		kind := FromStatus(se.Status)
		return Newf(kind, "Request failed with status %d", se.Status).
			WithDetails(se.Body).
			Wrap(err)
	}

	return New(KindUnknown, err.Error()).Wrap(err)
}
