package domain

import "errors"

var (
	// ErrNotFound is returned by lookups that miss; handlers surface it
	// as a user-facing "not found" message, never as a fatal error.
	ErrNotFound = errors.New("not found")

	// ErrItemNotAvailable is returned when an operation needs an item in
	// a state it is no longer in (reserving an in-use item, losing a race
	// against a concurrent reserver).
	ErrItemNotAvailable = errors.New("item not available")

	// ErrInvalidStateTransition is returned when an entity is asked to
	// leave a terminal state or skip a step in its lifecycle.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrValidation covers malformed input: bad level/shift/program
	// tokens, duplicate active reservations, and the like. State is never
	// mutated when it is returned.
	ErrValidation = errors.New("validation error")

	// ErrModelUnavailable signals that the remote forecast model could
	// not be reached; callers fall back to the historical estimator.
	ErrModelUnavailable = errors.New("forecast model unavailable")
)
