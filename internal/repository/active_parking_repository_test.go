package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/deanbaranes/bpark-server/internal/model"
)

func TestActiveParkingCreateDuplicateMeansLostRace(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewActiveParkingRepo(g)

	mock.ExpectExec("INSERT INTO active_parkings").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '12' for key 'active_parkings.spot_number'"))

	err := repo.Create(context.Background(), &model.ActiveParking{
		SubscriberID: 4, SpotNumber: 12,
		EntryAt:      time.Now().UTC(),
		ExpectedExit: time.Now().UTC().Add(4 * time.Hour),
		AccessCode:   "EEFF55",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("got %v, want ErrDuplicate", err)
	}
}

func TestActiveParkingOccupiedSpotsIncludesOverdue(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewActiveParkingRepo(g)

	// No time filter: an overdue vehicle still occupies its spot until
	// the towing sweep removes it.
	mock.ExpectQuery("SELECT spot_number FROM active_parkings").
		WillReturnRows(sqlmock.NewRows([]string{"spot_number"}).AddRow(2).AddRow(7).AddRow(51))

	spots, err := repo.OccupiedSpots(context.Background())
	if err != nil {
		t.Fatalf("OccupiedSpots: %v", err)
	}
	if len(spots) != 3 || spots[2] != 51 {
		t.Fatalf("spots = %v, want [2 7 51]", spots)
	}
}

func TestActiveParkingSetExtendedOnlyOnce(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewActiveParkingRepo(g)

	exit := time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE active_parkings SET expected_exit").
		WithArgs(exit, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetExtended(context.Background(), 9, exit)
	if err != nil {
		t.Fatalf("SetExtended: %v", err)
	}
	if !ok {
		t.Fatalf("first extension not granted")
	}

	// The extended=0 guard makes the second update touch no rows.
	mock.ExpectExec("UPDATE active_parkings SET expected_exit").
		WithArgs(exit, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.SetExtended(context.Background(), 9, exit)
	if err != nil {
		t.Fatalf("second SetExtended: %v", err)
	}
	if ok {
		t.Fatalf("second extension granted, want denied")
	}
}

func TestActiveParkingGetBySubscriberNotFound(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewActiveParkingRepo(g)

	mock.ExpectQuery("FROM active_parkings WHERE subscriber_id").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetBySubscriber(context.Background(), 77); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestActiveParkingListEnteredBefore(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewActiveParkingRepo(g)

	cutoff := time.Date(2026, 8, 20, 4, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "subscriber_id", "spot_number", "entry_at", "expected_exit", "access_code", "extended",
	}).AddRow(5, 21, 14, cutoff.Add(-2*time.Hour), cutoff.Add(2*time.Hour), "GGHH66", true)

	mock.ExpectQuery("FROM active_parkings WHERE entry_at").
		WithArgs(cutoff).
		WillReturnRows(rows)

	overdue, err := repo.ListEnteredBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ListEnteredBefore: %v", err)
	}
	if len(overdue) != 1 || overdue[0].SpotNumber != 14 || !overdue[0].Extended {
		t.Fatalf("overdue = %+v", overdue)
	}
}
