// Package errx implements the error taxonomy of §7: a tagged error type
// carrying a Code alongside the usual message/wrapped-error pair.
package errx

import (
	"errors"
	"fmt"
)

type Code string

type Error struct {
	Code Code
	Msg  string
	Err  error
}

// Error returns the error's string representation.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error, for errors.Unwrap/As/Is.
func (e *Error) Unwrap() error { return e.Err }

// New creates an error with a code and a message.
func New(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

// Newf creates an error with a code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error with a code and a message.
func Wrap(code Code, err error, msg string) *Error { return &Error{Code: code, Msg: msg, Err: err} }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// Code values for the §7 error taxonomy.
const (
	// CodeInput covers malformed sessions, malformed contracts, bad
	// flags, and unsupported file extensions.
	CodeInput Code = "INPUT_ERROR"
	// CodeIO covers file read/write failures and unreachable targets.
	CodeIO Code = "IO_ERROR"
	// CodeRender covers template compilation/rendering failures.
	CodeRender Code = "RENDER_ERROR"
	// CodeComparison covers unexpected differ failures.
	CodeComparison Code = "COMPARISON_ERROR"
	// CodeInvariant covers internal assertion failures; these are
	// recovered from a panic at the replay engine's per-interaction
	// boundary and recorded as that interaction's error there.
	CodeInvariant Code = "INVARIANT_VIOLATION"
)
