// Package apperror defines the error kinds surfaced by the notes service and
// how each one maps onto an HTTP status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindInternal         Kind = "internal"
	KindFetch            Kind = "fetch"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func MethodNotAllowed(format string, args ...any) *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected store or serialization failure. The message
// echoed to clients is the underlying error text.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

func Fetch(err error) *Error {
	return &Error{Kind: KindFetch, Err: err}
}

// KindOf reports the kind of err. Errors that did not originate here are
// treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindFetch:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
