// Package dispatch maps decoded client requests onto engine and
// repository operations. Requests form a closed sum type decoded once
// at the transport boundary; the dispatcher never parses wire text
// itself. Each request is handled independently and produces exactly
// one Response.
package dispatch

import "time"

// Request is the closed set of operations the dispatcher accepts.
// Handlers decode JSON bodies into one of the concrete variants below
// before calling Dispatch.
type Request interface {
	request()
}

// Login authenticates a subscriber by ID and subscription code.
// Source distinguishes the phone app ("app") from the gate kiosk
// ("kiosk"); only the app gets the subscriber profile back.
type Login struct {
	SubscriberID uint64
	Code         string
	Source       string
}

// ManagementLogin authenticates a staff account.
type ManagementLogin struct {
	Username string
	Password string
}

// NewReservation books a future spot starting at StartsAt.
type NewReservation struct {
	SubscriberID uint64
	StartsAt     time.Time
}

// ActivateReservation converts a reservation into an active session
// at the gate.
type ActivateReservation struct {
	Code string
}

// ImmediateDropoff requests a walk-in spot right now.
type ImmediateDropoff struct {
	SubscriberID uint64
}

// Pickup closes an active session by access code.
type Pickup struct {
	Code string
}

// Extend grants the subscriber's single parking extension.
type Extend struct {
	SubscriberID uint64
}

// CancelReservation deletes one of the subscriber's own future
// reservations. SubscriberID comes from the authenticated token, so a
// reservation held by someone else cannot be cancelled.
type CancelReservation struct {
	SubscriberID  uint64
	ReservationID uint64
}

// GetSiteActivity returns the staff overview: future reservations,
// active sessions and free spots.
type GetSiteActivity struct{}

// ParkingDurationReport requests the per-day duration report for a
// month.
type ParkingDurationReport struct {
	Year  int
	Month time.Month
}

// MemberStatusReport requests the per-day active-subscriber report
// for a month.
type MemberStatusReport struct {
	Year  int
	Month time.Month
}

// RegisterSubscriber creates a new subscriber and issues its
// subscription code.
type RegisterSubscriber struct {
	FullName      string
	Email         string
	Phone         string
	VehicleID     string
	CreditCardRef string
}

// UpdateContactInfo changes a subscriber's email and phone.
type UpdateContactInfo struct {
	SubscriberID uint64
	Email        string
	Phone        string
}

// GetSubscriber fetches a subscriber profile.
type GetSubscriber struct {
	SubscriberID uint64
}

// GetParkingHistory lists a subscriber's closed sessions, newest
// first.
type GetParkingHistory struct {
	SubscriberID uint64
}

func (Login) request()                 {}
func (ManagementLogin) request()       {}
func (NewReservation) request()        {}
func (ActivateReservation) request()   {}
func (ImmediateDropoff) request()      {}
func (Pickup) request()                {}
func (Extend) request()                {}
func (CancelReservation) request()     {}
func (GetSiteActivity) request()       {}
func (ParkingDurationReport) request() {}
func (MemberStatusReport) request()    {}
func (RegisterSubscriber) request()    {}
func (UpdateContactInfo) request()     {}
func (GetSubscriber) request()         {}
func (GetParkingHistory) request()     {}
