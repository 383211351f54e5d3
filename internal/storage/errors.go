package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a storage failure
type Kind string

const (
	// KindUnavailable means the backend is missing or unreachable
	KindUnavailable Kind = "unavailable"
	// KindRejected means the backend refused the write, e.g. an access policy
	KindRejected Kind = "rejected"
	// KindInvalid means the backend refused the payload itself
	KindInvalid Kind = "invalid"
)

// Error is the structured failure returned by a Registrations backend.
// Code, Details and Hint mirror the hosted service's error payload and are
// for server-side logs only.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "storage %s", e.Kind)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotConfigured is returned when no backend was configured at startup
var ErrNotConfigured = &Error{Kind: KindUnavailable, Message: "storage backend not configured"}

// Unavailable wraps err as a KindUnavailable storage error
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// KindOf returns the kind of a storage error, or "" if err is not one
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
