package dispatch

import (
	"time"

	"github.com/deanbaranes/bpark-server/internal/model"
)

// Response payload shapes. The model structs are storage rows; these
// are what goes over the wire, so sensitive columns (subscription
// code on foreign profiles, billing reference) stay out.

// SubscriberView is the profile returned to the subscriber's own app.
type SubscriberView struct {
	ID        uint64 `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	VehicleID string `json:"vehicle_id"`
	LateCount int    `json:"late_count"`
}

// ReservationView is a granted or listed reservation.
type ReservationView struct {
	ID         uint64    `json:"id"`
	SpotNumber int       `json:"spot_number"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	AccessCode string    `json:"access_code"`
}

// SessionView is an open parking session.
type SessionView struct {
	SpotNumber   int       `json:"spot_number"`
	EntryAt      time.Time `json:"entry_at"`
	ExpectedExit time.Time `json:"expected_exit"`
	AccessCode   string    `json:"access_code"`
	Extended     bool      `json:"extended"`
}

// HistoryView is a closed session as shown in the history list.
type HistoryView struct {
	SpotNumber int       `json:"spot_number"`
	EntryAt    time.Time `json:"entry_at"`
	ExitAt     time.Time `json:"exit_at"`
	Extended   bool      `json:"extended"`
	Outcome    string    `json:"outcome"`
}

// SiteActivityView is the staff overview of the facility.
type SiteActivityView struct {
	Reservations   []ReservationView `json:"reservations"`
	ActiveParkings []SessionView     `json:"active_parkings"`
	FreeSpots      []int             `json:"free_spots"`
}

// RegistrationView returns the new subscriber's ID and the
// subscription code they will log in with.
type RegistrationView struct {
	ID               uint64 `json:"id"`
	SubscriptionCode string `json:"subscription_code"`
}

func subscriberView(s *model.Subscriber) SubscriberView {
	return SubscriberView{
		ID:        s.ID,
		FullName:  s.FullName,
		Email:     s.Email,
		Phone:     s.Phone,
		VehicleID: s.VehicleID,
		LateCount: s.LateCount,
	}
}

func reservationView(r *model.Reservation) ReservationView {
	return ReservationView{
		ID:         r.ID,
		SpotNumber: r.SpotNumber,
		StartsAt:   r.StartsAt,
		EndsAt:     r.EndsAt,
		AccessCode: r.AccessCode,
	}
}

func sessionView(ap *model.ActiveParking) SessionView {
	return SessionView{
		SpotNumber:   ap.SpotNumber,
		EntryAt:      ap.EntryAt,
		ExpectedExit: ap.ExpectedExit,
		AccessCode:   ap.AccessCode,
		Extended:     ap.Extended,
	}
}

func historyView(h *model.ParkingHistory) HistoryView {
	return HistoryView{
		SpotNumber: h.SpotNumber,
		EntryAt:    h.EntryAt,
		ExitAt:     h.ExitAt,
		Extended:   h.Extended,
		Outcome:    h.Outcome,
	}
}
