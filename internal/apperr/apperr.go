// Package apperr defines the error kinds surfaced by the service layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation             Kind = "ValidationFailed"
	KindNotFound               Kind = "NotFound"
	KindForbidden              Kind = "Forbidden"
	KindInvalidTransition      Kind = "InvalidTransition"
	KindConflict               Kind = "Conflict"
	KindInvalidAmount          Kind = "InvalidAmount"
	KindUnknownTransactionKind Kind = "UnknownTransactionKind"
	KindUnauthorized           Kind = "Unauthorized"
	KindInternal               Kind = "Internal"
)

// Error carries a Kind alongside a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so errors.Is(err,
// apperr.ErrForbidden) works for any forbidden error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && t.Message == "" && t.Err == nil
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrInvalidAmount          = &Error{Kind: KindInvalidAmount}
	ErrUnknownTransactionKind = &Error{Kind: KindUnknownTransactionKind}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// ValidationErr wraps a validation failure reported by a model.
func ValidationErr(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error()}
}

func NotFound(what, id string) *Error {
	return New(KindNotFound, "%s %q not found", what, id)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return New(KindInvalidTransition, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err. Internal errors get a
// generic message so storage details do not leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
