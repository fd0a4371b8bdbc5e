package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// ActiveParkingRepo provides access to the active_parkings table.
// Rows exist only while a vehicle occupies a spot; closing a session
// deletes the row after the matching history record is appended.
// The spot_number and subscriber_id columns carry UNIQUE constraints,
// which is the storage-level half of the double-assignment safeguard
// (the engine's allocation mutex is the other half).
type ActiveParkingRepo struct {
	g *gateway.Gateway
}

// NewActiveParkingRepo returns an ActiveParkingRepo bound to the gateway.
func NewActiveParkingRepo(g *gateway.Gateway) *ActiveParkingRepo { return &ActiveParkingRepo{g: g} }

const activeParkingColumns = `id, subscriber_id, spot_number, entry_at, expected_exit, access_code, extended`

func scanActiveParking(row *sql.Row) (*model.ActiveParking, error) {
	var ap model.ActiveParking
	err := row.Scan(&ap.ID, &ap.SubscriberID, &ap.SpotNumber,
		&ap.EntryAt, &ap.ExpectedExit, &ap.AccessCode, &ap.Extended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

// Create inserts a new active parking and populates its generated ID.
// Returns ErrDuplicate when the spot or subscriber already has an
// active session, which indicates a lost allocation race.
func (r *ActiveParkingRepo) Create(ctx context.Context, ap *model.ActiveParking) error {
	const q = `INSERT INTO active_parkings (subscriber_id, spot_number, entry_at, expected_exit, access_code, extended)
	           VALUES (?, ?, ?, ?, ?, ?)`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		res, err := c.ExecContext(ctx, q,
			ap.SubscriberID, ap.SpotNumber, ap.EntryAt.UTC(), ap.ExpectedExit.UTC(), ap.AccessCode, ap.Extended)
		if err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicate
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ap.ID = uint64(id)
		return nil
	})
}

// GetBySubscriber fetches the subscriber's active session, if any.
func (r *ActiveParkingRepo) GetBySubscriber(ctx context.Context, subscriberID uint64) (*model.ActiveParking, error) {
	const q = `SELECT ` + activeParkingColumns + ` FROM active_parkings WHERE subscriber_id = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.ActiveParking, error) {
		return scanActiveParking(c.QueryRowContext(ctx, q, subscriberID))
	})
}

// GetByCode fetches an active session by its access code.
func (r *ActiveParkingRepo) GetByCode(ctx context.Context, code string) (*model.ActiveParking, error) {
	const q = `SELECT ` + activeParkingColumns + ` FROM active_parkings WHERE access_code = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.ActiveParking, error) {
		return scanActiveParking(c.QueryRowContext(ctx, q, code))
	})
}

// OccupiedSpots returns every spot number with a vehicle on it right
// now. Overdue sessions count as occupied until the towing sweep
// clears them.
func (r *ActiveParkingRepo) OccupiedSpots(ctx context.Context) ([]int, error) {
	const q = `SELECT spot_number FROM active_parkings`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]int, error) {
		rows, err := c.QueryContext(ctx, q)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var spots []int
		for rows.Next() {
			var n int
			if err := rows.Scan(&n); err != nil {
				return nil, err
			}
			spots = append(spots, n)
		}
		return spots, rows.Err()
	})
}

// CountOverlapping counts active sessions whose occupied window
// overlaps [from, to). A session that has not used its extension may
// still claim one, so its window extends past the expected exit by
// the extension length.
func (r *ActiveParkingRepo) CountOverlapping(ctx context.Context, from, to time.Time, extension time.Duration) (int, error) {
	const q = `SELECT COUNT(*) FROM active_parkings
	           WHERE entry_at < ? AND DATE_ADD(expected_exit, INTERVAL IF(extended, 0, ?) SECOND) > ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (int, error) {
		var n int
		err := c.QueryRowContext(ctx, q, to.UTC(), int64(extension.Seconds()), from.UTC()).Scan(&n)
		return n, err
	})
}

// BusySpotsInWindow returns the spot numbers of active sessions whose
// occupied window overlaps [from, to), using the same extension rule
// as CountOverlapping.
func (r *ActiveParkingRepo) BusySpotsInWindow(ctx context.Context, from, to time.Time, extension time.Duration) ([]int, error) {
	const q = `SELECT spot_number FROM active_parkings
	           WHERE entry_at < ? AND DATE_ADD(expected_exit, INTERVAL IF(extended, 0, ?) SECOND) > ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]int, error) {
		rows, err := c.QueryContext(ctx, q, to.UTC(), int64(extension.Seconds()), from.UTC())
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var spots []int
		for rows.Next() {
			var n int
			if err := rows.Scan(&n); err != nil {
				return nil, err
			}
			spots = append(spots, n)
		}
		return spots, rows.Err()
	})
}

// SetExtended moves the expected exit and marks the extension used.
// The guard on the extended column makes the operation a no-op on a
// second attempt; the return value reports whether the extension was
// actually granted.
func (r *ActiveParkingRepo) SetExtended(ctx context.Context, id uint64, newExit time.Time) (bool, error) {
	const q = `UPDATE active_parkings SET expected_exit = ?, extended = 1 WHERE id = ? AND extended = 0`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		res, err := c.ExecContext(ctx, q, newExit.UTC(), id)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

// Delete removes an active session row after it has been archived.
func (r *ActiveParkingRepo) Delete(ctx context.Context, id uint64) error {
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		_, err := c.ExecContext(ctx, `DELETE FROM active_parkings WHERE id = ?`, id)
		return err
	})
}

// ListEnteredBefore returns sessions whose entry time is at or before
// the cutoff. The towing sweep passes now minus the absolute tow
// threshold, so extension state is deliberately ignored here.
func (r *ActiveParkingRepo) ListEnteredBefore(ctx context.Context, cutoff time.Time) ([]model.ActiveParking, error) {
	const q = `SELECT ` + activeParkingColumns + ` FROM active_parkings WHERE entry_at <= ? ORDER BY entry_at`
	return r.list(ctx, q, cutoff.UTC())
}

// ListActive returns all currently active sessions ordered by spot.
func (r *ActiveParkingRepo) ListActive(ctx context.Context) ([]model.ActiveParking, error) {
	const q = `SELECT ` + activeParkingColumns + ` FROM active_parkings ORDER BY spot_number`
	return r.list(ctx, q)
}

func (r *ActiveParkingRepo) list(ctx context.Context, q string, args ...any) ([]model.ActiveParking, error) {
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]model.ActiveParking, error) {
		rows, err := c.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := make([]model.ActiveParking, 0)
		for rows.Next() {
			var ap model.ActiveParking
			if err := rows.Scan(&ap.ID, &ap.SubscriberID, &ap.SpotNumber,
				&ap.EntryAt, &ap.ExpectedExit, &ap.AccessCode, &ap.Extended); err != nil {
				return nil, err
			}
			out = append(out, ap)
		}
		return out, rows.Err()
	})
}

// CodeExists reports whether an active session uses the code.
func (r *ActiveParkingRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		var n int
		if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM active_parkings WHERE access_code = ?`, code).Scan(&n); err != nil {
			return false, err
		}
		return n > 0, nil
	})
}
