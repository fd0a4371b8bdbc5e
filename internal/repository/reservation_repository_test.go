package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/deanbaranes/bpark-server/internal/model"
)

func TestReservationDeleteReportsRemoval(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	mock.ExpectExec("DELETE FROM reservations WHERE id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 3)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("deleted = false, want true")
	}

	mock.ExpectExec("DELETE FROM reservations WHERE id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.Delete(context.Background(), 3)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if deleted {
		t.Fatalf("deleted = true for missing row, want false")
	}
}

func TestReservationDeleteOwnedScopesToSubscriber(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	// Wrong owner: the WHERE clause matches nothing and nothing is
	// deleted.
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \? AND subscriber_id = \?`).
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteOwned(context.Background(), 3, 7)
	if err != nil {
		t.Fatalf("DeleteOwned: %v", err)
	}
	if deleted {
		t.Fatalf("deleted = true for a foreign reservation, want false")
	}

	mock.ExpectExec(`DELETE FROM reservations WHERE id = \? AND subscriber_id = \?`).
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err = repo.DeleteOwned(context.Background(), 3, 1)
	if err != nil {
		t.Fatalf("owner DeleteOwned: %v", err)
	}
	if !deleted {
		t.Fatalf("deleted = false for the owner, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReservationGetByCodeNotFound(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	mock.ExpectQuery("FROM reservations WHERE access_code").
		WithArgs("ZZZZZZ").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByCode(context.Background(), "ZZZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReservationCountOverlapping(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	from := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reservations").
		WithArgs(to, int64(4*3600), from).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(7))

	n, err := repo.CountOverlapping(context.Background(), from, to, 4*time.Hour)
	if err != nil {
		t.Fatalf("CountOverlapping: %v", err)
	}
	if n != 7 {
		t.Fatalf("count = %d, want 7", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReservationDeleteExpired(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "subscriber_id", "spot_number", "starts_at", "ends_at", "access_code", "created_at",
	}).AddRow(1, 10, 4, now.Add(-6*time.Hour), now.Add(-2*time.Hour), "AAAA22", now.Add(-24*time.Hour)).
		AddRow(2, 11, 9, now.Add(-5*time.Hour), now.Add(-time.Hour), "BBBB33", now.Add(-20*time.Hour))

	mock.ExpectQuery("FROM reservations WHERE ends_at").
		WithArgs(now).
		WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM reservations WHERE ends_at").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	expired, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expired = %d rows, want 2", len(expired))
	}
	if expired[0].AccessCode != "AAAA22" || expired[1].SpotNumber != 9 {
		t.Fatalf("unexpected expired rows: %+v", expired)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReservationDeleteExpiredNothingToDo(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	now := time.Now().UTC()
	mock.ExpectQuery("FROM reservations WHERE ends_at").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "subscriber_id", "spot_number", "starts_at", "ends_at", "access_code", "created_at",
		}))

	expired, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expired = %d rows, want 0", len(expired))
	}
	// No DELETE must be issued when nothing matched.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReservationCreateSetsID(t *testing.T) {
	g, mock := newMockGateway(t)
	repo := NewReservationRepo(g)

	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(17, 1))

	res := &model.Reservation{
		SubscriberID: 10, SpotNumber: 3,
		StartsAt:   time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC),
		AccessCode: "CCDD44",
	}
	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID != 17 {
		t.Fatalf("ID = %d, want 17", res.ID)
	}
}
