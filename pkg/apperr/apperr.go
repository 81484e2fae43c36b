package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures the way callers need to react to them:
// not-found maps to 404, conflict is retryable, capacity is a rejected
// user action, integrity means the store violated an invariant we rely on.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindConflict  Kind = "conflict"
	KindCapacity  Kind = "capacity_exceeded"
	KindIntegrity Kind = "integrity_fault"
	KindInvalid   Kind = "invalid"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Capacity(format string, args ...any) error {
	return &Error{Kind: KindCapacity, Msg: fmt.Sprintf(format, args...)}
}

// Integrity marks a broken store invariant, for example a subscription
// referencing a plan that no longer exists. Log loudly, never swallow.
func Integrity(err error, format string, args ...any) error {
	return &Error{Kind: KindIntegrity, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err's chain, or "" if err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsNotFound(err error) bool  { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool  { return KindOf(err) == KindConflict }
func IsCapacity(err error) bool  { return KindOf(err) == KindCapacity }
func IsIntegrity(err error) bool { return KindOf(err) == KindIntegrity }
func IsInvalid(err error) bool   { return KindOf(err) == KindInvalid }
