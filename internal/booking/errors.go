package booking

import "errors"

// Engine error taxonomy. The API layer maps these to HTTP status codes with
// errors.Is; the engine itself never retries, every failure propagates.
var (
	// ErrInvalidRange marks a malformed or illegal date window (user input).
	ErrInvalidRange = errors.New("invalid date range")

	// ErrConflict means the requested car and window are no longer free.
	// Callers should re-query availability before retrying.
	ErrConflict = errors.New("car already reserved for an overlapping window")

	// ErrInvalidState marks a lifecycle transition attempted from an
	// incompatible state. Never coerced silently.
	ErrInvalidState = errors.New("transition not allowed from current booking state")

	// ErrUnavailable means the car's lock could not be acquired within the
	// bounded wait. Transient; safe to retry.
	ErrUnavailable = errors.New("car is busy, try again")

	// ErrNotFound marks a lookup of an unknown booking, car or hub.
	ErrNotFound = errors.New("not found")
)
