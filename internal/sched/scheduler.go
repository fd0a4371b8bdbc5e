// Package sched runs the server's autonomous duties: the towing
// sweep, the reservation-expiry sweep and the monthly report
// generation. Each duty runs on its own goroutine, shares nothing
// with the request handlers except the persistence layer, and treats
// every run as independent: a failed run is logged and the next one
// fires on schedule.
package sched

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
)

// Sweeper is the slice of the engine the periodic sweeps invoke.
type Sweeper interface {
	TowSweep(ctx context.Context) (int, error)
	ExpireReservations(ctx context.Context) (int, error)
}

// ReportSource produces the two monthly reports.
type ReportSource interface {
	Duration(ctx context.Context, year int, month time.Month) ([]model.DurationReportRow, error)
	Status(ctx context.Context, year int, month time.Month) ([]model.StatusReportRow, error)
}

// ReportStore persists generated report snapshots.
type ReportStore interface {
	Upsert(ctx context.Context, year int, month time.Month, kind string, payload []byte) error
}

// Scheduler owns the three timer loops. The clock is injectable so
// the month-boundary arithmetic is testable without waiting for one.
type Scheduler struct {
	sweeper    Sweeper
	reports    ReportSource
	store      ReportStore
	interval   time.Duration
	reportHour int
	now        func() time.Time
}

// New constructs a Scheduler sweeping every interval and generating
// reports at reportHour on the first day of each month.
func New(sweeper Sweeper, reports ReportSource, store ReportStore, interval time.Duration, reportHour int) *Scheduler {
	return &Scheduler{
		sweeper:    sweeper,
		reports:    reports,
		store:      store,
		interval:   interval,
		reportHour: reportHour,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the scheduler's wall clock. Tests only.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// Start launches the three loops. They stop when ctx is cancelled;
// there is no other cancellation path.
func (s *Scheduler) Start(ctx context.Context) {
	go s.sweepLoop(ctx, "tow-sweep", s.sweeper.TowSweep)
	go s.sweepLoop(ctx, "reservation-expiry", s.sweeper.ExpireReservations)
	go s.monthlyLoop(ctx)
}

// sweepLoop runs fn on a fixed ticker. Each run gets its own bounded
// context so a stuck database call cannot wedge the loop forever.
func (s *Scheduler) sweepLoop(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, s.interval)
			n, err := fn(runCtx)
			cancel()
			if err != nil {
				log.Printf("scheduler: %s failed: %v", name, err)
				continue
			}
			if n > 0 {
				log.Printf("scheduler: %s closed %d", name, n)
			}
		}
	}
}

// NextMonthlyRun computes the next report generation time after now:
// the first day of the following month at hour o'clock, in now's
// location. The result is always strictly after now, so a run firing
// exactly at the boundary reschedules for the month after.
func NextMonthlyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month()+1, 1, hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(next.Year(), next.Month()+1, 1, hour, 0, 0, 0, now.Location())
	}
	return next
}

// monthlyLoop sleeps until the next month boundary, generates the
// prior month's reports and reschedules. The delay is recomputed from
// the wall clock each cycle so drift never accumulates.
func (s *Scheduler) monthlyLoop(ctx context.Context) {
	for {
		now := s.now()
		next := NextMonthlyRun(now, s.reportHour)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		prev := next.AddDate(0, -1, 0)
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := s.GenerateMonthly(runCtx, prev.Year(), prev.Month()); err != nil {
			log.Printf("scheduler: monthly report for %d-%02d failed: %v", prev.Year(), prev.Month(), err)
		} else {
			log.Printf("scheduler: monthly reports for %d-%02d generated", prev.Year(), prev.Month())
		}
		cancel()
	}
}

// GenerateMonthly computes and stores both report kinds for the given
// month. Regeneration replaces any previous snapshot.
func (s *Scheduler) GenerateMonthly(ctx context.Context, year int, month time.Month) error {
	duration, err := s.reports.Duration(ctx, year, month)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(duration)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, year, month, repository.ReportKindDuration, payload); err != nil {
		return err
	}

	status, err := s.reports.Status(ctx, year, month)
	if err != nil {
		return err
	}
	payload, err = json.Marshal(status)
	if err != nil {
		return err
	}
	return s.store.Upsert(ctx, year, month, repository.ReportKindStatus, payload)
}
