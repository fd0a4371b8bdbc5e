package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/deanbaranes/bpark-server/internal/gateway"
)

// Report kinds stored in monthly_reports.kind.
const (
	ReportKindDuration = "DURATION"
	ReportKindStatus   = "STATUS"
)

// MonthlyReportRepo stores the JSON snapshots the scheduler generates
// at each month boundary. Regeneration is idempotent: writing the
// same (year, month, kind) again replaces the previous payload.
type MonthlyReportRepo struct {
	g *gateway.Gateway
}

// NewMonthlyReportRepo returns a MonthlyReportRepo bound to the gateway.
func NewMonthlyReportRepo(g *gateway.Gateway) *MonthlyReportRepo { return &MonthlyReportRepo{g: g} }

// Upsert stores or replaces a generated report payload.
func (r *MonthlyReportRepo) Upsert(ctx context.Context, year int, month time.Month, kind string, payload []byte) error {
	const q = `INSERT INTO monthly_reports (report_year, report_month, kind, payload)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE payload = VALUES(payload), generated_at = CURRENT_TIMESTAMP`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		_, err := c.ExecContext(ctx, q, year, int(month), kind, payload)
		return err
	})
}

// Get returns the stored payload for (year, month, kind), or
// ErrNotFound when no snapshot has been generated yet.
func (r *MonthlyReportRepo) Get(ctx context.Context, year int, month time.Month, kind string) ([]byte, error) {
	const q = `SELECT payload FROM monthly_reports WHERE report_year = ? AND report_month = ? AND kind = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) ([]byte, error) {
		var payload []byte
		err := c.QueryRowContext(ctx, q, year, int(month), kind).Scan(&payload)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return payload, nil
	})
}
