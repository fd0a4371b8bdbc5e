package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// HistoryRepo provides access to the append-only parking_history
// table. Rows are written once when a session closes and are read
// back for subscriber history views, the towed-vehicle pickup check
// and the monthly report aggregation.
type HistoryRepo struct {
	g *gateway.Gateway
}

// NewHistoryRepo returns a HistoryRepo bound to the gateway.
func NewHistoryRepo(g *gateway.Gateway) *HistoryRepo { return &HistoryRepo{g: g} }

const historyColumns = `id, subscriber_id, vehicle_id, spot_number, entry_at, exit_at, expected_exit, access_code, extended, outcome`

// Append writes the archival record for a closed session.
func (r *HistoryRepo) Append(ctx context.Context, h *model.ParkingHistory) error {
	const q = `INSERT INTO parking_history
	           (subscriber_id, vehicle_id, spot_number, entry_at, exit_at, expected_exit, access_code, extended, outcome)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		res, err := c.ExecContext(ctx, q,
			h.SubscriberID, h.VehicleID, h.SpotNumber,
			h.EntryAt.UTC(), h.ExitAt.UTC(), h.ExpectedExit.UTC(),
			h.AccessCode, h.Extended, h.Outcome)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		h.ID = uint64(id)
		return nil
	})
}

// ListBySubscriber returns a subscriber's past sessions, newest first.
func (r *HistoryRepo) ListBySubscriber(ctx context.Context, subscriberID uint64) ([]model.ParkingHistory, error) {
	const q = `SELECT ` + historyColumns + ` FROM parking_history WHERE subscriber_id = ? ORDER BY exit_at DESC`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]model.ParkingHistory, error) {
		rows, err := c.QueryContext(ctx, q, subscriberID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := make([]model.ParkingHistory, 0)
		for rows.Next() {
			var h model.ParkingHistory
			if err := rows.Scan(&h.ID, &h.SubscriberID, &h.VehicleID, &h.SpotNumber,
				&h.EntryAt, &h.ExitAt, &h.ExpectedExit, &h.AccessCode, &h.Extended, &h.Outcome); err != nil {
				return nil, err
			}
			out = append(out, h)
		}
		return out, rows.Err()
	})
}

// LatestTowedByCode finds the most recent towed session opened with
// the given access code. The pickup flow uses it to tell a subscriber
// whose vehicle was towed apart from one presenting an unknown code.
func (r *HistoryRepo) LatestTowedByCode(ctx context.Context, code string) (*model.ParkingHistory, error) {
	const q = `SELECT ` + historyColumns + ` FROM parking_history
	           WHERE access_code = ? AND outcome = ? ORDER BY exit_at DESC LIMIT 1`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.ParkingHistory, error) {
		var h model.ParkingHistory
		err := c.QueryRowContext(ctx, q, code, model.OutcomeTowed).Scan(
			&h.ID, &h.SubscriberID, &h.VehicleID, &h.SpotNumber,
			&h.EntryAt, &h.ExitAt, &h.ExpectedExit, &h.AccessCode, &h.Extended, &h.Outcome)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &h, nil
	})
}

// DayDuration is one day's worth of raw duration sums as produced by
// the grouping query. Days without activity are absent; the report
// aggregator zero-fills them.
type DayDuration struct {
	Day              int
	ParkedMinutes    int
	LateMinutes      int
	ExtensionMinutes int
}

// DurationSumsByDay groups the month's closed sessions by the day of
// their exit and sums parked minutes, minutes past the expected exit
// for towed sessions, and minutes contributed by extensions. The
// extension length is a policy value, so it is passed in as minutes.
func (r *HistoryRepo) DurationSumsByDay(ctx context.Context, year int, month time.Month, extensionMinutes int) ([]DayDuration, error) {
	const q = `SELECT DAY(exit_at),
	                  COALESCE(SUM(TIMESTAMPDIFF(MINUTE, entry_at, exit_at)), 0),
	                  COALESCE(SUM(CASE WHEN outcome = ? THEN GREATEST(0, TIMESTAMPDIFF(MINUTE, expected_exit, exit_at)) ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN extended THEN ? ELSE 0 END), 0)
	           FROM parking_history
	           WHERE YEAR(exit_at) = ? AND MONTH(exit_at) = ?
	           GROUP BY DAY(exit_at)`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]DayDuration, error) {
		rows, err := c.QueryContext(ctx, q, model.OutcomeTowed, extensionMinutes, year, int(month))
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []DayDuration
		for rows.Next() {
			var d DayDuration
			if err := rows.Scan(&d.Day, &d.ParkedMinutes, &d.LateMinutes, &d.ExtensionMinutes); err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, rows.Err()
	})
}

// DayCount pairs a day of month with a subscriber count.
type DayCount struct {
	Day   int
	Count int
}

// ActiveSubscribersByDay groups the month's closed sessions by the
// day of their entry and counts distinct subscribers per day.
func (r *HistoryRepo) ActiveSubscribersByDay(ctx context.Context, year int, month time.Month) ([]DayCount, error) {
	const q = `SELECT DAY(entry_at), COUNT(DISTINCT subscriber_id)
	           FROM parking_history
	           WHERE YEAR(entry_at) = ? AND MONTH(entry_at) = ?
	           GROUP BY DAY(entry_at)`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]DayCount, error) {
		rows, err := c.QueryContext(ctx, q, year, int(month))
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []DayCount
		for rows.Next() {
			var d DayCount
			if err := rows.Scan(&d.Day, &d.Count); err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, rows.Err()
	})
}
