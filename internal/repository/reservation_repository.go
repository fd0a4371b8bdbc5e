package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// ReservationRepo provides access to the reservations table. For
// overlap accounting a reservation occupies its spot from starts_at
// until ends_at plus the maximum extension, so the window queries take
// the extension in seconds and push it into the SQL. All timestamps
// are stored in UTC.
type ReservationRepo struct {
	g *gateway.Gateway
}

// NewReservationRepo returns a ReservationRepo bound to the gateway.
func NewReservationRepo(g *gateway.Gateway) *ReservationRepo { return &ReservationRepo{g: g} }

const reservationColumns = `id, subscriber_id, spot_number, starts_at, ends_at, access_code, created_at`

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.SubscriberID, &res.SpotNumber,
		&res.StartsAt, &res.EndsAt, &res.AccessCode, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts a reservation and populates its generated ID.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (subscriber_id, spot_number, starts_at, ends_at, access_code)
	           VALUES (?, ?, ?, ?, ?)`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		result, err := c.ExecContext(ctx, q,
			res.SubscriberID, res.SpotNumber, res.StartsAt.UTC(), res.EndsAt.UTC(), res.AccessCode)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		return nil
	})
}

// GetByCode fetches a reservation by its access code. Returns
// ErrNotFound when the code matches no outstanding reservation.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE access_code = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.Reservation, error) {
		return scanReservation(c.QueryRowContext(ctx, q, code))
	})
}

// GetByID fetches a reservation by primary key.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.Reservation, error) {
		return scanReservation(c.QueryRowContext(ctx, q, id))
	})
}

// Delete removes a reservation, freeing its spot for future
// allocation. It reports whether a row was actually deleted.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		res, err := c.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

// DeleteOwned removes a reservation only when it belongs to the given
// subscriber. The ownership check lives in the statement itself so it
// cannot race with the delete. Reports whether a row was deleted; a
// reservation owned by someone else reports false, same as a missing
// one.
func (r *ReservationRepo) DeleteOwned(ctx context.Context, id, subscriberID uint64) (bool, error) {
	const q = `DELETE FROM reservations WHERE id = ? AND subscriber_id = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		res, err := c.ExecContext(ctx, q, id, subscriberID)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

// CountOverlapping counts reservations whose occupied window
// (starts_at .. ends_at + extension) overlaps [from, to).
func (r *ReservationRepo) CountOverlapping(ctx context.Context, from, to time.Time, extension time.Duration) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE starts_at < ? AND DATE_ADD(ends_at, INTERVAL ? SECOND) > ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (int, error) {
		var n int
		err := c.QueryRowContext(ctx, q, to.UTC(), int64(extension.Seconds()), from.UTC()).Scan(&n)
		return n, err
	})
}

// SubscriberHasOverlapping reports whether the subscriber already
// holds a reservation whose occupied window overlaps [from, to).
func (r *ReservationRepo) SubscriberHasOverlapping(ctx context.Context, subscriberID uint64, from, to time.Time, extension time.Duration) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE subscriber_id = ? AND starts_at < ? AND DATE_ADD(ends_at, INTERVAL ? SECOND) > ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		var n int
		if err := c.QueryRowContext(ctx, q, subscriberID, to.UTC(), int64(extension.Seconds()), from.UTC()).Scan(&n); err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// BusySpotsInWindow returns the spot numbers held by reservations
// whose occupied window overlaps [from, to). The engine merges these
// with the currently occupied spots when picking a free one.
func (r *ReservationRepo) BusySpotsInWindow(ctx context.Context, from, to time.Time, extension time.Duration) ([]int, error) {
	const q = `SELECT spot_number FROM reservations
	           WHERE starts_at < ? AND DATE_ADD(ends_at, INTERVAL ? SECOND) > ?`
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

// DeleteExpired removes reservations whose arrival window fully
// elapsed without activation (ends_at at or before now) and returns
// the deleted rows so the sweep can log them. An activated
// reservation no longer exists as a row, so it can never match.
func (r *ReservationRepo) DeleteExpired(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE ends_at <= ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]model.Reservation, error) {
		rows, err := c.QueryContext(ctx, sel, now.UTC())
		if err != nil {
			return nil, err
		}
		var expired []model.Reservation
		for rows.Next() {
			var res model.Reservation
			if err := rows.Scan(&res.ID, &res.SubscriberID, &res.SpotNumber,
				&res.StartsAt, &res.EndsAt, &res.AccessCode, &res.CreatedAt); err != nil {
				rows.Close()
				return nil, err
			}
			expired = append(expired, res)
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if len(expired) == 0 {
			return nil, nil
		}
		if _, err := c.ExecContext(ctx, `DELETE FROM reservations WHERE ends_at <= ?`, now.UTC()); err != nil {
			return nil, err
		}
		return expired, nil
	})
}

// ListFuture returns reservations whose window has not yet elapsed,
// ordered by start time. Used for the staff site-activity view.
func (r *ReservationRepo) ListFuture(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE ends_at > ? ORDER BY starts_at`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]model.Reservation, error) {
		rows, err := c.QueryContext(ctx, q, now.UTC())
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := make([]model.Reservation, 0)
		for rows.Next() {
			var res model.Reservation
			if err := rows.Scan(&res.ID, &res.SubscriberID, &res.SpotNumber,
				&res.StartsAt, &res.EndsAt, &res.AccessCode, &res.CreatedAt); err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		return out, rows.Err()
	})
}

// CodeExists reports whether an outstanding reservation uses the code.
func (r *ReservationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (bool, error) {
		var n int
		if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE access_code = ?`, code).Scan(&n); err != nil {
			return false, err
		}
		return n > 0, nil
	})
}
