// Package evoerr implements the error-kind taxonomy shared across the
// core: every failure the simulation surfaces carries a Kind so
// callers can branch on category without string matching.
package evoerr

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure. The zero value, Other, is the fallback
// for failures that don't fit a more specific bucket.
type Kind int

const (
	Other Kind = iota
	Validation
	Wasm
	ResourceExhausted
	Serialization
	NotFound
	AlreadyExists
	InvalidState
	Network
	Database
	Io
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Wasm:
		return "wasm"
	case ResourceExhausted:
		return "resource_exhausted"
	case Serialization:
		return "serialization"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case InvalidState:
		return "invalid_state"
	case Network:
		return "network"
	case Database:
		return "database"
	case Io:
		return "io"
	default:
		return "other"
	}
}

// Error wraps an underlying cause with an operation name and a Kind,
// in the style of the standard library's fs.PathError.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error; otherwise it returns Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
