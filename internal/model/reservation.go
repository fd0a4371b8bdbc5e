package model

import "time"

// Reservation records a subscriber's future booking of a parking
// spot. A reservation occupies its spot for the whole stay window
// plus the maximum allowed extension, so that an extended session
// can never collide with a later reservation on the same spot. A
// reservation is consumed when it is activated on site (becoming an
// ActiveParking) or deleted by the scheduler once its arrival window
// lapses unused.
//
// Fields:
//  ID           – primary key identifier.
//  SubscriberID – subscriber who made the reservation.
//  SpotNumber   – parking spot assigned for the window.
//  StartsAt     – beginning of the reserved window (UTC).
//  EndsAt       – expected exit time (StartsAt + stay duration, UTC).
//  AccessCode   – unique code presented at the gate to activate.
//  CreatedAt    – creation timestamp.
type Reservation struct {
	ID           uint64    // reservations.id
	SubscriberID uint64    // reservations.subscriber_id
	SpotNumber   int       // reservations.spot_number
	StartsAt     time.Time // reservations.starts_at
	EndsAt       time.Time // reservations.ends_at
	AccessCode   string    // reservations.access_code
	CreatedAt    time.Time // reservations.created_at
}
