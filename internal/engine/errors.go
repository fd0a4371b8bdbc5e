package engine

import "errors"

// Expected denial and conflict outcomes. The dispatcher maps each to
// its protocol tag; none of them indicate an infrastructure failure.
var (
	// ErrNoSpots: no spot can satisfy the request (none free, or the
	// walk-in availability floor would be violated).
	ErrNoSpots = errors.New("no spots available")

	// ErrAlreadyParked: the subscriber already has an active session.
	ErrAlreadyParked = errors.New("car already parked")

	// ErrCapacityExceeded: overlap occupancy over the reservation ceiling.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrDuplicateReservation: the subscriber already holds a
	// reservation overlapping the requested window.
	ErrDuplicateReservation = errors.New("duplicate reservation")

	// ErrArriveEarly: activation attempted before the early-arrival
	// window opens; the reservation is left intact.
	ErrArriveEarly = errors.New("arrived too early")

	// ErrAlreadyExtended: the session already used its one extension.
	ErrAlreadyExtended = errors.New("already extended")

	// ErrVehicleTowed: pickup attempted for a session that was closed
	// by the towing sweep.
	ErrVehicleTowed = errors.New("vehicle was towed")

	// ErrPastWindow: a reservation was requested for a start time that
	// has already passed.
	ErrPastWindow = errors.New("window start in the past")
)
