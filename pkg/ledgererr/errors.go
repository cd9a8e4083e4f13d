// Package ledgererr defines the failure kinds every ledger operation can
// return. A failed operation never leaves partial state behind, so callers
// only need the kind to decide what to fix before reissuing the call.
package ledgererr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected
type Kind string

const (
	KindOperational   Kind = "operational"
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindTransfer      Kind = "transfer"
	KindInternal      Kind = "internal"
)

// Error is the typed failure returned by ledger operations
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind and operation to an underlying error
func Wrap(err error, kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Operational is returned when the ledger is paused
func Operational(op string) error {
	return New(KindOperational, op, "ledger is not operational")
}

// Unauthorized is returned when the caller lacks the required role
func Unauthorized(op, caller, role string) error {
	return New(KindAuthorization, op, fmt.Sprintf("caller %q is not %s", caller, role))
}

// Invalid is returned when a precondition on the arguments or state fails
func Invalid(op, format string, args ...interface{}) error {
	return New(KindValidation, op, fmt.Sprintf(format, args...))
}

// NotFound is returned by queries for records that do not exist
func NotFound(op, format string, args ...interface{}) error {
	return New(KindNotFound, op, fmt.Sprintf(format, args...))
}

// Internal wraps infrastructure failures. Errors that already carry a kind
// are returned unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return Wrap(err, KindInternal, op, "storage failure")
}

// KindOf reports the kind of the outermost ledger error in the chain.
// Untyped errors are internal; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// Is reports whether err is a ledger error of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
