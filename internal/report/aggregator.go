// Package report computes the monthly statistics over the parking
// history. Aggregation is pure read-side work: the queries group
// closed sessions by day and this package zero-fills the gaps so
// every report carries one row per calendar day of the month.
package report

import (
	"context"
	"time"

	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
)

// HistorySource is the slice of the history repository the aggregator
// reads from.
type HistorySource interface {
	DurationSumsByDay(ctx context.Context, year int, month time.Month, extensionMinutes int) ([]repository.DayDuration, error)
	ActiveSubscribersByDay(ctx context.Context, year int, month time.Month) ([]repository.DayCount, error)
}

// Aggregator builds the per-day monthly reports.
type Aggregator struct {
	history          HistorySource
	extensionMinutes int
}

// New returns an Aggregator. The extension duration is policy, not
// data, so it is fixed at construction.
func New(history HistorySource, extension time.Duration) *Aggregator {
	return &Aggregator{history: history, extensionMinutes: int(extension.Minutes())}
}

// Duration returns the duration report for the month: total parked
// minutes, late minutes and extension minutes per calendar day,
// zero-filled for days without activity.
func (a *Aggregator) Duration(ctx context.Context, year int, month time.Month) ([]model.DurationReportRow, error) {
	sums, err := a.history.DurationSumsByDay(ctx, year, month, a.extensionMinutes)
	if err != nil {
		return nil, err
	}
	days := daysIn(year, month)
	rows := make([]model.DurationReportRow, days)
	for i := range rows {
		rows[i].Day = i + 1
	}
	for _, s := range sums {
		if s.Day < 1 || s.Day > days {
			continue
		}
		rows[s.Day-1].ParkedMinutes = s.ParkedMinutes
		rows[s.Day-1].LateMinutes = s.LateMinutes
		rows[s.Day-1].ExtensionMinutes = s.ExtensionMinutes
	}
	return rows, nil
}

// Status returns the member-status report: the number of distinct
// subscribers active on each calendar day, zero-filled.
func (a *Aggregator) Status(ctx context.Context, year int, month time.Month) ([]model.StatusReportRow, error) {
	counts, err := a.history.ActiveSubscribersByDay(ctx, year, month)
	if err != nil {
		return nil, err
	}
	days := daysIn(year, month)
	rows := make([]model.StatusReportRow, days)
	for i := range rows {
		rows[i].Day = i + 1
	}
	for _, c := range counts {
		if c.Day < 1 || c.Day > days {
			continue
		}
		rows[c.Day-1].ActiveSubscribers = c.Count
	}
	return rows, nil
}

// daysIn returns the number of days in the month, leap years included.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
