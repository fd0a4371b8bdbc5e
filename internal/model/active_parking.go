package model

import "time"

// ActiveParking represents a vehicle currently occupying a parking
// spot. At most one ActiveParking exists per subscriber and per spot
// at any instant. The record is deleted when the session closes
// (pickup or tow); a ParkingHistory row is appended in its place.
//
// Fields:
//  ID           – primary key identifier.
//  SubscriberID – subscriber whose vehicle is parked.
//  SpotNumber   – occupied parking spot.
//  EntryAt      – when the vehicle entered (UTC).
//  ExpectedExit – expected exit time; moved once by an extension.
//  AccessCode   – code presented at the gate to pick the vehicle up.
//  Extended     – whether the single allowed extension was used.
type ActiveParking struct {
	ID           uint64    // active_parkings.id
	SubscriberID uint64    // active_parkings.subscriber_id
	SpotNumber   int       // active_parkings.spot_number
	EntryAt      time.Time // active_parkings.entry_at
	ExpectedExit time.Time // active_parkings.expected_exit
	AccessCode   string    // active_parkings.access_code
	Extended     bool      // active_parkings.extended
}
