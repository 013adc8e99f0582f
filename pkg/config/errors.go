package config

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a configuration error.
type ErrorKind string

const (
	// KindLoadFailure means no handle could be produced: the file is
	// unreadable, does not parse, or raised an error while executing.
	// It is terminal for that load attempt.
	KindLoadFailure ErrorKind = "load_failure"

	// KindStructuralViolation means a table entry broke the string-key /
	// string-or-number-value contract, or the script did not produce a table.
	KindStructuralViolation ErrorKind = "structural_violation"

	// KindNotFound means the queried key is absent and no violation was
	// encountered before the end of the table.
	KindNotFound ErrorKind = "not_found"

	// KindInvalidArgument means the caller misused the API, e.g. an empty
	// key or a closed handle.
	KindInvalidArgument ErrorKind = "invalid_argument"
)

// Error is a classified configuration error.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Path is the configuration file involved, if known.
	Path string `json:"path,omitempty"`

	// Key is the queried key, if applicable.
	Key string `json:"key,omitempty"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrLoadFailure         = &Error{Kind: KindLoadFailure}
	ErrStructuralViolation = &Error{Kind: KindStructuralViolation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithPath adds the configuration path to an error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithKey adds the queried key to an error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewLoadFailure creates a new load failure.
func NewLoadFailure(message string, err error) *Error {
	return newError(KindLoadFailure, message, err)
}

// NewStructuralViolation creates a new structural violation.
func NewStructuralViolation(message string) *Error {
	return newError(KindStructuralViolation, message, nil)
}

// NewNotFound creates a new not-found error.
func NewNotFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// NewInvalidArgument creates a new invalid-argument error.
func NewInvalidArgument(message string) *Error {
	return newError(KindInvalidArgument, message, nil)
}

// KindOf returns the classification of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsLoadFailure returns true if the error is classified as a load failure.
func IsLoadFailure(err error) bool {
	return KindOf(err) == KindLoadFailure
}

// IsStructuralViolation returns true if the error is classified as a
// structural violation.
func IsStructuralViolation(err error) bool {
	return KindOf(err) == KindStructuralViolation
}

// IsNotFound returns true if the error is classified as not found.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
