package assignment

import "errors"

var (
	// ErrNotFound means the booking does not exist, or is not assigned to the
	// provider acting on it.
	ErrNotFound = errors.New("booking not found")
	// ErrPreconditionFailed means the booking is not in a state that allows
	// the requested transition.
	ErrPreconditionFailed = errors.New("booking state does not allow this action")
	// ErrConflict means concurrent writers kept winning the version race.
	ErrConflict = errors.New("booking was modified concurrently")
)
