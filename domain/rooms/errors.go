package rooms

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Callers switch on the kind, not on concrete
// error types; the HTTP layer maps each kind to a status code in one place.
type Kind int

const (
	// KindInternal covers unclassified failures: store unreachable, pool
	// exhaustion, slug space pressure.
	KindInternal Kind = iota
	// KindUnauthorized means the caller presented no (or an invalid) identity.
	KindUnauthorized
	// KindForbidden means the caller lacks rights over a specific resource.
	KindForbidden
	// KindNotFound means a referenced user, room, or connection is absent.
	KindNotFound
	// KindConflict means occupancy or optimistic-write contention, including
	// "already joined" and "room full".
	KindConflict
	// KindInvalidInput means a malformed request payload.
	KindInvalidInput
)

// String returns the lowercase tag used in API error responses.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error is the single error type produced by the core modules.
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

// Errf builds a classified error.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is classified NotFound.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsConflict reports whether err is classified Conflict.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }
