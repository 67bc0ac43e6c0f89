// Package domainerrors provides coded errors for the orchestration core.
//
// Services return these so transports and the job worker can branch on the
// code rather than on error strings. Infrastructure facts (not found,
// expired, unavailable) live in pkg/platform/sentinel; this package covers
// the failure taxonomy of the core itself.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for routing decisions.
type Code string

const (
	// CodeValidation marks malformed input (event or job payload). Rejected
	// before enqueue and never retried.
	CodeValidation Code = "validation"

	// CodePolicyDenied marks a consent gate failure. Surfaced synchronously
	// to the caller, never retried automatically.
	CodePolicyDenied Code = "policy_denied"

	// CodeTransient marks a handler failure eligible for backoff retry.
	CodeTransient Code = "transient"

	// CodeFatal marks a handler failure that must not be retried. The job
	// worker routes these straight to the dead-letter queue.
	CodeFatal Code = "fatal"

	// CodeTimeout marks an operation that exceeded its deadline.
	CodeTimeout Code = "timeout"

	// CodeNotFound marks a missing entity surfaced at a service boundary.
	CodeNotFound Code = "not_found"

	// CodeInternal marks an unexpected failure with no better classification.
	CodeInternal Code = "internal"
)

// Error carries a code, a message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. Returns nil if err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}
