// Package dberr defines the shared error taxonomy for the calibration and
// run-conditions engines. Every failure surfaced by this module carries one
// of the codes below; callers branch on codes with the Is* helpers rather
// than on message text.
package dberr

import (
	"errors"
	"fmt"
)

// Code categorizes an engine error.
type Code string

const (
	// CodeNotFound indicates resolution found no valid record. Not
	// exceptional: batch APIs absorb it as absence, single lookups surface it.
	CodeNotFound Code = "NOT_FOUND"

	// CodeLookup indicates an unknown column, condition, directory, table,
	// or alias name.
	CodeLookup Code = "LOOKUP"

	// CodeBounds indicates a row or column index outside the valid range.
	CodeBounds Code = "BOUNDS"

	// CodeTypeMismatch indicates a comparator applied to a condition of a
	// different declared type. Detected when the expression is bound to the
	// schema, before any row is evaluated.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeConfiguration indicates malformed caller input: a bad timestamp
	// string, an empty request, an invalid run range.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeIO indicates the backing store is unreachable or corrupt.
	CodeIO Code = "IO"
)

// Error is a structured engine error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Details contains additional context (paths, names, session ids).
	Details map[string]string

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping a cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetail attaches a key/value pair and returns the same error.
func (e *Error) WithDetail(key, val string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string, 1)
	}
	e.Details[key] = val
	return e
}

func is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsLookup reports whether err is a LOOKUP error.
func IsLookup(err error) bool { return is(err, CodeLookup) }

// IsBounds reports whether err is a BOUNDS error.
func IsBounds(err error) bool { return is(err, CodeBounds) }

// IsTypeMismatch reports whether err is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool { return is(err, CodeTypeMismatch) }

// IsConfiguration reports whether err is a CONFIGURATION error.
func IsConfiguration(err error) bool { return is(err, CodeConfiguration) }

// IsIO reports whether err is an IO error.
func IsIO(err error) bool { return is(err, CodeIO) }
