package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
)

// This file holds the closing half of a session's lifecycle:
// NONE -> ACTIVE -> (EXTENDED)? -> CLOSED_PICKUP | CLOSED_TOWED.
// Opening transitions live in allocation.go; closing ones here. The
// closed states are terminal: the active row is replaced by a history
// record and the subscriber returns to NONE.

// Pickup closes the session identified by the access code, writes the
// history record and frees the spot. If the code matches no active
// session but does match a recently towed one, ErrVehicleTowed tells
// the gate to show the towing notice instead of a plain failure.
func (e *Engine) Pickup(ctx context.Context, code string) (*model.ParkingHistory, error) {
	ap, err := e.actives.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		if _, towedErr := e.history.LatestTowedByCode(ctx, code); towedErr == nil {
			return nil, ErrVehicleTowed
		}
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.closeSession(ctx, ap, model.OutcomePickup, e.now())
}

// Tow forcibly closes an overdue session: archive, free the spot,
// bump the subscriber's late counter and announce the tow. When the
// late counter reaches the policy threshold the announcement also
// carries the late-charge notice. Notification failures are logged
// and never undo the close.
func (e *Engine) Tow(ctx context.Context, ap *model.ActiveParking) error {
	h, err := e.closeSession(ctx, ap, model.OutcomeTowed, e.now())
	if err != nil {
		return err
	}
	lateCount, err := e.subscribers.IncrementLateCount(ctx, ap.SubscriberID)
	if err != nil {
		return fmt.Errorf("increment late count: %w", err)
	}

	if e.notifier == nil {
		return nil
	}
	sub, err := e.subscribers.GetByID(ctx, ap.SubscriberID)
	if err != nil {
		log.Printf("engine: tow notification skipped, subscriber %d lookup failed: %v", ap.SubscriberID, err)
		return nil
	}
	subject := "Your vehicle has been towed"
	body := fmt.Sprintf("Vehicle %s was towed from spot %d at %s after exceeding the parking limit.",
		h.VehicleID, h.SpotNumber, h.ExitAt.Format(time.RFC822))
	if lateCount >= e.policy.LateThreshold {
		subject = "Your vehicle has been towed - late charge applied"
		body += fmt.Sprintf(" This is late pickup number %d; a late charge has been applied to your account.", lateCount)
	}
	e.notifier.Send(ctx, sub.Email, subject, body)
	return nil
}

// closeSession archives an active session with the given outcome and
// removes its row, freeing the spot. History is written before the
// delete so a crash between the two leaves a record rather than a
// silent disappearance.
func (e *Engine) closeSession(ctx context.Context, ap *model.ActiveParking, outcome string, exitAt time.Time) (*model.ParkingHistory, error) {
	vehicle := ""
	if sub, err := e.subscribers.GetByID(ctx, ap.SubscriberID); err == nil {
		vehicle = sub.VehicleID
	}
	h := &model.ParkingHistory{
		SubscriberID: ap.SubscriberID,
		VehicleID:    vehicle,
		SpotNumber:   ap.SpotNumber,
		EntryAt:      ap.EntryAt,
		ExitAt:       exitAt,
		ExpectedExit: ap.ExpectedExit,
		AccessCode:   ap.AccessCode,
		Extended:     ap.Extended,
		Outcome:      outcome,
	}
	if err := e.history.Append(ctx, h); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	if err := e.actives.Delete(ctx, ap.ID); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return h, nil
}

// TowSweep closes every session whose entry time is at least TowAfter
// in the past. The cutoff is absolute from entry and deliberately
// ignores extensions. Each tow is independent: one failure is logged
// and the sweep moves on. Returns the number of sessions towed.
func (e *Engine) TowSweep(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-e.policy.TowAfter)
	overdue, err := e.actives.ListEnteredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	towed := 0
	for i := range overdue {
		if err := e.Tow(ctx, &overdue[i]); err != nil {
			log.Printf("engine: tow of spot %d failed: %v", overdue[i].SpotNumber, err)
			continue
		}
		towed++
	}
	return towed, nil
}

// ExpireReservations deletes reservations whose arrival window fully
// elapsed without activation, freeing their spots. Activated
// reservations no longer exist as rows and are therefore untouched.
// Returns the number of reservations expired.
func (e *Engine) ExpireReservations(ctx context.Context) (int, error) {
	expired, err := e.reservations.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
