package model

import "time"

// Closing outcomes recorded in parking_history.outcome.
const (
	OutcomePickup = "PICKUP" // vehicle collected by the subscriber
	OutcomeTowed  = "TOWED"  // vehicle removed by the towing sweep
)

// ParkingHistory is the immutable archival record written when an
// ActiveParking closes. Rows are append-only: they are read back for
// subscriber history views and for monthly report aggregation, never
// updated.
//
// Fields:
//  ID           – primary key identifier.
//  SubscriberID – subscriber who owned the session.
//  VehicleID    – vehicle identifier at the time of the session.
//  SpotNumber   – spot the vehicle occupied.
//  EntryAt      – session entry time (UTC).
//  ExitAt       – actual close time (pickup or tow, UTC).
//  ExpectedExit – expected exit at close time, after any extension.
//  AccessCode   – code the session was opened with.
//  Extended     – whether the session used its extension.
//  Outcome      – OutcomePickup or OutcomeTowed.
type ParkingHistory struct {
	ID           uint64    // parking_history.id
	SubscriberID uint64    // parking_history.subscriber_id
	VehicleID    string    // parking_history.vehicle_id
	SpotNumber   int       // parking_history.spot_number
	EntryAt      time.Time // parking_history.entry_at
	ExitAt       time.Time // parking_history.exit_at
	ExpectedExit time.Time // parking_history.expected_exit
	AccessCode   string    // parking_history.access_code
	Extended     bool      // parking_history.extended
	Outcome      string    // parking_history.outcome
}
