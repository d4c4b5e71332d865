package backends

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/vaibhav1874/TrueVail/internal/clients"
)

// ErrorKind is the failure taxonomy the orchestrator falls back on
type ErrorKind string

const (
	KindUnavailable ErrorKind = "unavailable"
	KindConnection  ErrorKind = "connection"
	KindTimeout     ErrorKind = "timeout"
	KindQuota       ErrorKind = "quota_exceeded"
	KindMalformed   ErrorKind = "malformed_response"
	KindStatus      ErrorKind = "status"
)

// Error is a classified backend failure
type Error struct {
	Backend    string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend %s: %s", e.Backend, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new backend error
func NewError(backend string, kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Backend: backend,
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// IsQuotaExceeded checks if an error is a quota failure
func IsQuotaExceeded(err error) bool {
	return KindOf(err) == KindQuota
}

// KindOf returns the kind of a backend error, or "" for anything else
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// classify maps a client error onto the backend taxonomy
func classify(backend string, err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}

	if errors.Is(err, clients.ErrNotConfigured) {
		return NewError(backend, KindUnavailable, "not configured", err)
	}
	if apiErr, ok := clients.AsAPIError(err); ok {
		kind := KindStatus
		if apiErr.RateLimited() {
			kind = KindQuota
		}
		if apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout {
			kind = KindTimeout
		}
		return &Error{Backend: backend, Kind: kind, StatusCode: apiErr.StatusCode, Message: apiErr.Message, Cause: err}
	}
	if errors.Is(err, clients.ErrEmptyResponse) || errors.Is(err, clients.ErrMalformedResponse) {
		return NewError(backend, KindMalformed, "", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(backend, KindTimeout, "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(backend, KindTimeout, "", err)
	}
	return NewError(backend, KindConnection, "", err)
}
