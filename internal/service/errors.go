package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is the error type returned by every service.  Message is safe to
// show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string // per-field validation messages, may be empty
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrAuth       = &Error{Kind: KindAuth, Message: "unauthorized"}
	ErrForbidden  = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInternal   = &Error{Kind: KindInternal, Message: "internal server error"}
)

func validation(msg string, fields ...string) error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func unauthorized(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

func forbidden(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }

func notFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// internal wraps a store failure.  The cause stays out of the message.
func internal(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindInternal, Message: op + " failed", Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
