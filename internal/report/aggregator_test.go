package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deanbaranes/bpark-server/internal/repository"
)

type fakeHistory struct {
	sums   []repository.DayDuration
	counts []repository.DayCount
	err    error

	gotExtension int
}

func (f *fakeHistory) DurationSumsByDay(ctx context.Context, year int, month time.Month, extensionMinutes int) ([]repository.DayDuration, error) {
	f.gotExtension = extensionMinutes
	return f.sums, f.err
}

func (f *fakeHistory) ActiveSubscribersByDay(ctx context.Context, year int, month time.Month) ([]repository.DayCount, error) {
	return f.counts, f.err
}

func TestDurationZeroFillsEveryDay(t *testing.T) {
	h := &fakeHistory{sums: []repository.DayDuration{
		{Day: 3, ParkedMinutes: 480, LateMinutes: 30, ExtensionMinutes: 240},
		{Day: 31, ParkedMinutes: 120},
	}}
	a := New(h, 4*time.Hour)

	rows, err := a.Duration(context.Background(), 2026, time.July)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if len(rows) != 31 {
		t.Fatalf("len = %d, want 31 rows for July", len(rows))
	}
	if h.gotExtension != 240 {
		t.Fatalf("extension minutes passed = %d, want 240", h.gotExtension)
	}
	for i, row := range rows {
		if row.Day != i+1 {
			t.Fatalf("row %d has Day %d", i, row.Day)
		}
	}
	if rows[2].ParkedMinutes != 480 || rows[2].LateMinutes != 30 || rows[2].ExtensionMinutes != 240 {
		t.Fatalf("day 3 row: %+v", rows[2])
	}
	if rows[30].ParkedMinutes != 120 {
		t.Fatalf("day 31 row: %+v", rows[30])
	}
	if rows[0].ParkedMinutes != 0 || rows[15].ParkedMinutes != 0 {
		t.Fatalf("idle days not zero-filled: %+v %+v", rows[0], rows[15])
	}
}

func TestDurationMonthLengths(t *testing.T) {
	a := New(&fakeHistory{}, 4*time.Hour)
	cases := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, tc := range cases {
		rows, err := a.Duration(context.Background(), tc.year, tc.month)
		if err != nil {
			t.Fatalf("%d-%02d: %v", tc.year, tc.month, err)
		}
		if len(rows) != tc.days {
			t.Fatalf("%d-%02d: len = %d, want %d", tc.year, tc.month, len(rows), tc.days)
		}
	}
}

func TestDurationIgnoresOutOfRangeDays(t *testing.T) {
	// A day number the month does not have must not panic or leak in.
	h := &fakeHistory{sums: []repository.DayDuration{
		{Day: 0, ParkedMinutes: 999},
		{Day: 31, ParkedMinutes: 999},
		{Day: 14, ParkedMinutes: 60},
	}}
	a := New(h, 4*time.Hour)

	rows, err := a.Duration(context.Background(), 2026, time.April)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("len = %d, want 30", len(rows))
	}
	if rows[13].ParkedMinutes != 60 {
		t.Fatalf("day 14 row: %+v", rows[13])
	}
	for _, row := range rows {
		if row.ParkedMinutes == 999 {
			t.Fatalf("out-of-range sum leaked into day %d", row.Day)
		}
	}
}

func TestStatusZeroFillsEveryDay(t *testing.T) {
	h := &fakeHistory{counts: []repository.DayCount{
		{Day: 1, Count: 12},
		{Day: 20, Count: 4},
	}}
	a := New(h, 4*time.Hour)

	rows, err := a.Status(context.Background(), 2026, time.June)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("len = %d, want 30 rows for June", len(rows))
	}
	if rows[0].ActiveSubscribers != 12 || rows[19].ActiveSubscribers != 4 {
		t.Fatalf("rows = %+v %+v", rows[0], rows[19])
	}
	if rows[10].ActiveSubscribers != 0 {
		t.Fatalf("idle day not zero: %+v", rows[10])
	}
}

func TestAggregatorPropagatesErrors(t *testing.T) {
	boom := errors.New("db gone")
	a := New(&fakeHistory{err: boom}, 4*time.Hour)

	if _, err := a.Duration(context.Background(), 2026, time.July); !errors.Is(err, boom) {
		t.Fatalf("Duration err = %v, want the source error", err)
	}
	if _, err := a.Status(context.Background(), 2026, time.July); !errors.Is(err, boom) {
		t.Fatalf("Status err = %v, want the source error", err)
	}
}
