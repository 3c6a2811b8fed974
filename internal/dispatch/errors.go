package dispatch

import (
	"errors"
	"fmt"
)

// DispatchError is returned by lifecycle and creation queue operations.
//
// Routing never returns errors: an object whose type has no translator is
// simply not synchronized.
type DispatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ObjectID and ObjectType identify the affected object, when there is one.
	ObjectID   string
	ObjectType string

	// Err is the underlying cause, e.g. the session's Create error.
	Err error
}

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	// ErrCodeAlreadyInitialized indicates Initialize was called twice without CleanUp.
	ErrCodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"

	// ErrCodeNoTranslator indicates a queued object's type has no translator.
	ErrCodeNoTranslator ErrorCode = "NO_TRANSLATOR"

	// ErrCodeCreateFailed indicates the session refused a creation request.
	ErrCodeCreateFailed ErrorCode = "CREATE_FAILED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ObjectType != "" {
		msg = fmt.Sprintf("%s (type=%s)", msg, e.ObjectType)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err, any error it wraps, or any error it joins is
// a DispatchError with code. ProcessCreateQueue joins one error per failed
// entry, so a single drain can carry several codes.
func HasCode(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *DispatchError:
		if e.Code == code {
			return true
		}
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
		return false
	}
	return HasCode(errors.Unwrap(err), code)
}

// IsAlreadyInitialized reports whether err is a double-initialize error.
func IsAlreadyInitialized(err error) bool {
	return HasCode(err, ErrCodeAlreadyInitialized)
}

// IsNoTranslator reports whether err, or any error it joins, is a
// missing-translator error.
func IsNoTranslator(err error) bool {
	return HasCode(err, ErrCodeNoTranslator)
}

// IsCreateFailed reports whether err, or any error it joins, is a refused
// creation request.
func IsCreateFailed(err error) bool {
	return HasCode(err, ErrCodeCreateFailed)
}
