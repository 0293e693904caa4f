package store

import "errors"

var (
	// ErrNotFound means the facility has no schedule (or the slot does not exist).
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique-key constraint fired, e.g. a concurrent
	// reconcile inserted the same (facility, date, time) first, or a booking
	// state transition lost a race. Recoverable by retrying the operation.
	ErrConflict = errors.New("conflict")
)
