// Package engine implements the allocation and lifecycle rules of the
// facility: whether a drop-off or reservation is granted, which spot
// it gets, how sessions extend and how they close. Allocation
// decisions run inside a single critical section so that two requests
// checking occupancy concurrently can never both claim the last spot;
// the UNIQUE constraints on active_parkings back the same invariant
// at the storage layer.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/deanbaranes/bpark-server/internal/config"
	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
)

// Engine holds the policy and the stores allocation decisions are
// made against. The now func is injectable for tests and defaults to
// time.Now in UTC.
type Engine struct {
	policy       config.Policy
	subscribers  SubscriberStore
	reservations ReservationStore
	actives      ActiveParkingStore
	history      HistoryStore
	notifier     Notifier
	now          func() time.Time

	allocMu sync.Mutex // serializes check-then-act allocation sequences
}

// New constructs an Engine. All stores must be non-nil; notifier may
// be nil, in which case lifecycle events simply go unannounced.
func New(policy config.Policy, subs SubscriberStore, res ReservationStore, actives ActiveParkingStore, hist HistoryStore, notifier Notifier) *Engine {
	if subs == nil || res == nil || actives == nil || hist == nil {
		panic("nil store passed to engine.New")
	}
	return &Engine{
		policy:       policy,
		subscribers:  subs,
		reservations: res,
		actives:      actives,
		history:      hist,
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the engine's wall clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// occupiedWindow is how long a grant keeps its spot busy for overlap
// accounting: the stay itself plus the extension it may still claim.
func (e *Engine) occupiedWindow(start time.Time) (time.Time, time.Time) {
	return start, start.Add(e.policy.StayDuration + e.policy.ExtensionDuration)
}

// RequestImmediateSpot grants a walk-in drop-off. The subscriber must
// have no active session, at least one spot must be free for the full
// stay window and the free fraction must not fall below the walk-in
// availability floor. On success an ActiveParking is created on the
// lowest free spot with a fresh access code.
func (e *Engine) RequestImmediateSpot(ctx context.Context, subscriberID uint64) (*model.ActiveParking, error) {
	e.allocMu.Lock()
	defer e.allocMu.Unlock()

	if _, err := e.actives.GetBySubscriber(ctx, subscriberID); err == nil {
		return nil, ErrAlreadyParked
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := e.now()
	from, to := e.occupiedWindow(now)

	occupied, err := e.actives.OccupiedSpots(ctx)
	if err != nil {
		return nil, err
	}
	reserved, err := e.reservations.BusySpotsInWindow(ctx, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	spot, busy := lowestFreeSpot(e.policy.TotalSpots, occupied, reserved)
	free := e.policy.TotalSpots - busy
	if spot == 0 || float64(free) < e.policy.WalkInMinAvailable*float64(e.policy.TotalSpots)-1e-9 {
		return nil, ErrNoSpots
	}

	code, err := e.newAccessCode(ctx)
	if err != nil {
		return nil, err
	}
	ap := &model.ActiveParking{
		SubscriberID: subscriberID,
		SpotNumber:   spot,
		EntryAt:      now,
		ExpectedExit: now.Add(e.policy.StayDuration),
		AccessCode:   code,
	}
	if err := e.actives.Create(ctx, ap); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Allocation race lost against another writer.
			return nil, ErrAlreadyParked
		}
		return nil, err
	}
	return ap, nil
}

// RequestReservation grants a future booking starting at start. The
// overlap window used for occupancy accounting spans the stay plus
// the maximum extension. Occupancy at exactly the ceiling is still
// allowed; only exceeding it denies.
func (e *Engine) RequestReservation(ctx context.Context, subscriberID uint64, start time.Time) (*model.Reservation, error) {
	e.allocMu.Lock()
	defer e.allocMu.Unlock()

	now := e.now()
	start = start.UTC()
	if !start.After(now) {
		return nil, ErrPastWindow
	}
	from, to := e.occupiedWindow(start)

	resCount, err := e.reservations.CountOverlapping(ctx, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	activeCount, err := e.actives.CountOverlapping(ctx, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	overlap := resCount + activeCount
	if float64(overlap) > e.policy.OccupancyCeiling*float64(e.policy.TotalSpots)+1e-9 {
		return nil, ErrCapacityExceeded
	}

	dup, err := e.reservations.SubscriberHasOverlapping(ctx, subscriberID, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateReservation
	}

	reserved, err := e.reservations.BusySpotsInWindow(ctx, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	activeBusy, err := e.actives.BusySpotsInWindow(ctx, from, to, e.policy.ExtensionDuration)
	if err != nil {
		return nil, err
	}
	spot, _ := lowestFreeSpot(e.policy.TotalSpots, reserved, activeBusy)
	if spot == 0 {
		return nil, ErrNoSpots
	}

	code, err := e.newAccessCode(ctx)
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{
		SubscriberID: subscriberID,
		SpotNumber:   spot,
		StartsAt:     start,
		EndsAt:       start.Add(e.policy.StayDuration),
		AccessCode:   code,
	}
	if err := e.reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ActivateReservation converts a reservation into an active session.
// The gate accepts the code from EarlyArrival before the window start
// through the window end. Arriving earlier returns ErrArriveEarly and
// leaves the reservation intact; an unknown or elapsed code returns
// repository.ErrNotFound. The reservation is consumed exactly once.
func (e *Engine) ActivateReservation(ctx context.Context, code string) (*model.ActiveParking, error) {
	e.allocMu.Lock()
	defer e.allocMu.Unlock()

	res, err := e.reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now.Before(res.StartsAt.Add(-e.policy.EarlyArrival)) {
		return nil, ErrArriveEarly
	}
	if now.After(res.EndsAt) {
		// Window elapsed; the expiry sweep will remove the row.
		return nil, repository.ErrNotFound
	}
	if _, err := e.actives.GetBySubscriber(ctx, res.SubscriberID); err == nil {
		return nil, ErrAlreadyParked
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Consume first so a concurrent activation of the same code fails,
	// then create the session on the reserved spot.
	deleted, err := e.reservations.Delete(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, repository.ErrNotFound
	}
	ap := &model.ActiveParking{
		SubscriberID: res.SubscriberID,
		SpotNumber:   res.SpotNumber,
		EntryAt:      now,
		ExpectedExit: now.Add(e.policy.StayDuration),
		AccessCode:   res.AccessCode,
	}
	if err := e.actives.Create(ctx, ap); err != nil {
		// Best effort: put the reservation back so the grant is not lost.
		_ = e.reservations.Create(ctx, res)
		return nil, err
	}
	return ap, nil
}

// ExtendActiveParking grants the subscriber's one extension, moving
// the expected exit by the extension duration. A second attempt
// returns ErrAlreadyExtended and leaves the exit time unchanged.
func (e *Engine) ExtendActiveParking(ctx context.Context, subscriberID uint64) (time.Time, error) {
	ap, err := e.actives.GetBySubscriber(ctx, subscriberID)
	if err != nil {
		return time.Time{}, err
	}
	if ap.Extended {
		return time.Time{}, ErrAlreadyExtended
	}
	newExit := ap.ExpectedExit.Add(e.policy.ExtensionDuration)
	ok, err := e.actives.SetExtended(ctx, ap.ID, newExit)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		// Raced with another extend of the same session.
		return time.Time{}, ErrAlreadyExtended
	}
	return newExit, nil
}

// CancelReservation deletes the subscriber's own reservation, freeing
// its spot. It reports whether a reservation was actually removed; a
// reservation held by another subscriber reports false, same as a
// missing one, so the response does not reveal whose it is.
func (e *Engine) CancelReservation(ctx context.Context, subscriberID, id uint64) (bool, error) {
	return e.reservations.DeleteOwned(ctx, id, subscriberID)
}

// lowestFreeSpot returns the lowest spot number in 1..total not
// present in any of the busy sets, plus the count of busy spots. A
// zero spot means no spot is free. Spot choice is deterministic so
// repeated runs against the same state pick the same spot.
func lowestFreeSpot(total int, busySets ...[]int) (spot, busyCount int) {
	busy := make(map[int]struct{})
	for _, set := range busySets {
		for _, n := range set {
			if n >= 1 && n <= total {
				busy[n] = struct{}{}
			}
		}
	}
	free := 0
	for n := 1; n <= total; n++ {
		if _, taken := busy[n]; !taken {
			if free == 0 {
				free = n
			}
		}
	}
	return free, len(busy)
}

// FreeSpots lists the spots with no vehicle on them right now,
// ascending. Used by the staff site-activity view.
func (e *Engine) FreeSpots(ctx context.Context) ([]int, error) {
	occupied, err := e.actives.OccupiedSpots(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]struct{}, len(occupied))
	for _, n := range occupied {
		taken[n] = struct{}{}
	}
	free := make([]int, 0, e.policy.TotalSpots-len(taken))
	for n := 1; n <= e.policy.TotalSpots; n++ {
		if _, ok := taken[n]; !ok {
			free = append(free, n)
		}
	}
	return free, nil
}
