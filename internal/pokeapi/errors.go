package pokeapi

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every failed request returns an *Error whose Kind is one of these,
// so callers can use errors.Is(err, ErrNotFound).
var (
	// ErrNotFound is returned for a 404 (unknown id or name).
	ErrNotFound = errors.New("pokeapi: not found")

	// ErrNetwork is returned when the request could not complete.
	ErrNetwork = errors.New("pokeapi: network failure")

	// ErrMalformed is returned when the response body has an unexpected shape.
	ErrMalformed = errors.New("pokeapi: malformed response")

	// ErrStatus is returned for any other non-2xx status.
	ErrStatus = errors.New("pokeapi: unexpected status")
)

// Error describes a failed API call.
type Error struct {
	Op     string // e.g. "list", "pokemon"
	Kind   error  // one of the Err* sentinels
	Status int    // HTTP status, 0 when no response was received
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind is a printable error classification.
type Kind string

const (
	KindNone      Kind = ""
	KindNotFound  Kind = "not_found"
	KindNetwork   Kind = "network"
	KindMalformed Kind = "malformed"
	KindStatus    Kind = "status"
	KindCanceled  Kind = "canceled"
	KindOther     Kind = "other"
)

// Classify maps an error to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrStatus):
		return KindStatus
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}
