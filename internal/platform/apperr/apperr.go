package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidState
	KindForbidden
	KindUnavailable
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified application error. Two errors are considered equal by
// errors.Is when their codes match, so package-level values can act as
// sentinels while call sites attach their own message or cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// Validation creates a validation error with a generic code.
func Validation(message string) *Error {
	return New(KindValidation, "VALIDATION_FAILED", message)
}

// NotFound creates a not-found error for the given resource.
func NotFound(resource, id string) *Error {
	return New(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s not found: %s", resource, id))
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, "CONFLICT", message)
}

// InvalidState reports a disallowed state transition.
func InvalidState(from, to string) *Error {
	return New(KindInvalidState, "INVALID_STATE", fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// Forbidden creates an authorization error.
func Forbidden(message string) *Error {
	return New(KindForbidden, "FORBIDDEN", message)
}

// Unavailable reports a dependency failure the caller may retry.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Code: "UNAVAILABLE", Message: message, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain, or "INTERNAL".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
