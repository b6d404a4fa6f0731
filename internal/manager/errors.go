package manager

import (
	"errors"

	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
)

// badRequestError marks input the caller must fix (maps to 400).
type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return "bad request: " + e.msg }

// ErrBadRequest constructs a badRequestError.
func ErrBadRequest(msg string) error { return badRequestError{msg: msg} }

// IsBadRequest reports whether err is caller input error, including an
// invalid scheduling policy.
func IsBadRequest(err error) bool {
	var br badRequestError
	return errors.As(err, &br) || scheduler.IsConfigError(err)
}

// IsUnavailable reports whether err means "try again later": the gate
// verdict is negative, or the item was drained or arrived after Close.
func IsUnavailable(err error) bool {
	return gate.IsUnavailable(err) ||
		errors.Is(err, scheduler.ErrDrained) ||
		errors.Is(err, scheduler.ErrClosed)
}
