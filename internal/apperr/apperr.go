// Package apperr defines the helpdesk failure taxonomy and the mapping from
// store errors to it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindNotAcceptable
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:      "internal",
	KindBadRequest:    "bad_request",
	KindNotFound:      "not_found",
	KindNotAcceptable: "not_acceptable",
	KindConflict:      "conflict",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a categorized failure. Message is safe to show to callers; Cause
// is for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error of the same Kind, so errors.Is(err, apperr.NotFound)
// style checks work against the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrBadRequest    = &Error{Kind: KindBadRequest}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrNotAcceptable = &Error{Kind: KindNotAcceptable}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrInternal      = &Error{Kind: KindInternal}
)

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NotAcceptable(format string, args ...any) *Error {
	return &Error{Kind: KindNotAcceptable, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps cause behind a generic message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Unexpected persistence error", Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus is the inverse of HTTPStatus, used by HTTP clients.
func FromStatus(status int, message string) *Error {
	k := KindInternal
	switch status {
	case http.StatusBadRequest:
		k = KindBadRequest
	case http.StatusNotFound:
		k = KindNotFound
	case http.StatusNotAcceptable:
		k = KindNotAcceptable
	case http.StatusConflict:
		k = KindConflict
	}
	return &Error{Kind: k, Message: message}
}
