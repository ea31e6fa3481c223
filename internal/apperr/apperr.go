// Package apperr defines the domain error taxonomy shared by the services and
// the HTTP boundary. Callers match on Kind with errors.As or KindOf.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of a domain error.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindDuplicateUser      Kind = "DuplicateUser"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindTokenMissing       Kind = "TokenMissing"
	KindTokenInvalid       Kind = "TokenInvalid"
	KindTokenExpired       Kind = "TokenExpired"
	KindNotFound           Kind = "NotFound"
	KindForbidden          Kind = "Forbidden"
	KindStoreUnavailable   Kind = "StoreUnavailable"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// Error is a domain error. Cause is kept for server-side logging only.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind, so sentinel-style
// comparisons such as errors.Is(err, apperr.New(apperr.KindNotFound, "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation builds a ValidationError carrying per-field details.
func Validation(fields ...FieldError) *Error {
	msg := "invalid request"
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// KindOf returns the Kind of err, or KindStoreUnavailable for errors that are
// not domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreUnavailable
}

// IsUnauthenticated reports whether the kind means the caller has no valid session.
func (k Kind) IsUnauthenticated() bool {
	return k == KindTokenMissing || k == KindTokenInvalid || k == KindTokenExpired
}
