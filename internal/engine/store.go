package engine

import (
	"context"
	"time"

	"github.com/deanbaranes/bpark-server/internal/model"
)

// The engine talks to persistence through narrow interfaces satisfied
// by the repository types. Tests substitute an in-memory store.

// SubscriberStore is the slice of subscriber persistence the engine needs.
type SubscriberStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Subscriber, error)
	IncrementLateCount(ctx context.Context, id uint64) (int, error)
}

// ReservationStore covers reservation rows and their window queries.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByCode(ctx context.Context, code string) (*model.Reservation, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	DeleteOwned(ctx context.Context, id, subscriberID uint64) (bool, error)
	CountOverlapping(ctx context.Context, from, to time.Time, extension time.Duration) (int, error)
	SubscriberHasOverlapping(ctx context.Context, subscriberID uint64, from, to time.Time, extension time.Duration) (bool, error)
	BusySpotsInWindow(ctx context.Context, from, to time.Time, extension time.Duration) ([]int, error)
	DeleteExpired(ctx context.Context, now time.Time) ([]model.Reservation, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ActiveParkingStore covers the currently parked sessions.
type ActiveParkingStore interface {
	Create(ctx context.Context, ap *model.ActiveParking) error
	GetBySubscriber(ctx context.Context, subscriberID uint64) (*model.ActiveParking, error)
	GetByCode(ctx context.Context, code string) (*model.ActiveParking, error)
	OccupiedSpots(ctx context.Context) ([]int, error)
	CountOverlapping(ctx context.Context, from, to time.Time, extension time.Duration) (int, error)
	BusySpotsInWindow(ctx context.Context, from, to time.Time, extension time.Duration) ([]int, error)
	SetExtended(ctx context.Context, id uint64, newExit time.Time) (bool, error)
	Delete(ctx context.Context, id uint64) error
	ListEnteredBefore(ctx context.Context, cutoff time.Time) ([]model.ActiveParking, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// HistoryStore appends and reads the archival records.
type HistoryStore interface {
	Append(ctx context.Context, h *model.ParkingHistory) error
	LatestTowedByCode(ctx context.Context, code string) (*model.ParkingHistory, error)
}

// Notifier is the outbound notification channel: deliver body to
// address under subject, fire-and-forget. Failures must never block
// the state change that triggered the notification.
type Notifier interface {
	Send(ctx context.Context, address, subject, body string)
}
