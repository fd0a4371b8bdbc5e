package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/pool"
)

// newMockGateway builds a gateway over a sqlmock-backed pool. Queries
// issued through the gateway's connections are matched against the
// returned mock.
func newMockGateway(t *testing.T) (*gateway.Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	p := pool.New(db.Conn, 2, 100*time.Millisecond)
	t.Cleanup(p.Close)
	return gateway.New(p), mock
}
