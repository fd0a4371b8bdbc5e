// Package gateway is the single doorway between the repositories and
// the connection pool. Every row-level operation borrows a connection
// through WithConn or WithConnVoid, which guarantee the connection is
// returned to the pool on every exit path. The gateway carries no
// business logic of its own.
package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deanbaranes/bpark-server/internal/pool"
)

// Gateway wraps the connection pool with scoped-acquisition helpers.
type Gateway struct {
	pool *pool.Pool
}

// New returns a Gateway borrowing from the given pool.
func New(p *pool.Pool) *Gateway {
	if p == nil {
		panic("nil pool passed to gateway.New")
	}
	return &Gateway{pool: p}
}

// WithConnVoid acquires a connection, runs fn and releases the
// connection regardless of how fn returns. Use it for write-only
// operations; reads that produce a value go through WithConn.
func (g *Gateway) WithConnVoid(ctx context.Context, fn func(ctx context.Context, c *sql.Conn) error) error {
	c, err := g.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer g.pool.Release(c)
	return fn(ctx, c)
}

// WithConn acquires a connection, runs fn and releases the connection
// on every exit path, returning fn's value. It is a free function
// because Go methods cannot introduce type parameters.
func WithConn[T any](g *Gateway, ctx context.Context, fn func(ctx context.Context, c *sql.Conn) (T, error)) (T, error) {
	var zero T
	c, err := g.pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer g.pool.Release(c)
	return fn(ctx, c)
}
