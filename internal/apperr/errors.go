// Package apperr defines the error taxonomy shared by every component of the
// service. Each error carries a Kind that the HTTP layer maps to a status code
// and that the retry layer uses to decide whether a call is worth repeating.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	// Unknown is the zero value for errors produced outside this package.
	Unknown Kind = iota
	// Configuration marks a missing or invalid required setting. Fatal at
	// startup, never produced per request.
	Configuration
	// InvalidArgument marks malformed or unsupported caller input.
	InvalidArgument
	// NotFound marks a job, object or record that does not exist.
	NotFound
	// Upstream marks a failure reported by the store, signer or engine.
	Upstream
	// UpstreamTimeout marks an outbound call that exceeded its deadline.
	UpstreamTimeout
	// Unavailable marks a backend that could not allocate a session.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case Upstream:
		return "upstream"
	case UpstreamTimeout:
		return "upstream timeout"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with the given message.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Message: msg}
}

// Newf returns a classified error with a formatted message.
func Newf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a classified error wrapping err.
func Wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Message: msg, Err: err}
}

// KindOf reports the Kind of err, or Unknown when err was not produced by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
