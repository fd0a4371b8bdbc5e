// Package pool implements the bounded database connection pool shared
// by the request handlers and the scheduler. Connections are created
// lazily through a factory, handed out one holder at a time and
// returned (or discarded) after each operation. The pool never holds
// more than its configured maximum of idle connections.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// ErrExhausted is returned by Acquire when every connection is held
// and no connection became free within the acquire timeout. Callers
// surface this as a server error; the pool never retries internally.
var ErrExhausted = errors.New("pool: exhausted")

// ErrClosed is returned by Acquire after Close has been called.
var ErrClosed = errors.New("pool: closed")

// Factory creates a new database connection. Creation failures are
// surfaced to the caller of Acquire unchanged.
type Factory func(ctx context.Context) (*sql.Conn, error)

// Pool is a bounded pool of reusable *sql.Conn. All methods are safe
// for concurrent use from request goroutines and the scheduler.
type Pool struct {
	factory        Factory
	acquireTimeout time.Duration

	idle chan *sql.Conn

	mu     sync.Mutex
	max    int
	open   int // connections in existence: idle + currently held
	closed bool
}

// New builds a pool that keeps at most max connections and waits at
// most acquireTimeout for a free connection before failing.
func New(factory Factory, max int, acquireTimeout time.Duration) *Pool {
	if max < 1 {
		max = 1
	}
	return &Pool{
		factory:        factory,
		acquireTimeout: acquireTimeout,
		idle:           make(chan *sql.Conn, max),
		max:            max,
	}
}

// Acquire returns an idle connection, creating one while fewer than
// max exist. When the pool is momentarily exhausted it waits up to
// the acquire timeout (or ctx cancellation) and then fails with
// ErrExhausted. A returned connection is never simultaneously held
// by another caller.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	select {
	case c := <-p.idle:
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if p.open < p.max {
		p.open++
		p.mu.Unlock()
		c, err := p.factory(ctx)
		if err != nil {
			p.mu.Lock()
			p.open--
			p.mu.Unlock()
			return nil, err
		}
		return c, nil
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()
	select {
	case c := <-p.idle:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrExhausted
	}
}

// Release returns a connection to the idle set. When the idle set is
// already at capacity, or the pool has been closed, the connection is
// closed instead of growing the pool past its maximum. The closed
// check and the idle send happen under one lock so a release racing
// Close can never park a connection after the drain.
func (p *Pool) Release(c *sql.Conn) {
	if c == nil {
		return
	}
	p.mu.Lock()
	if !p.closed {
		select {
		case p.idle <- c:
			p.mu.Unlock()
			return
		default:
		}
	}
	p.open--
	p.mu.Unlock()
	_ = c.Close()
}

// Discard closes a connection that should not be reused, for example
// after a driver-level error, and frees its slot for a future Acquire.
func (p *Pool) Discard(c *sql.Conn) {
	if c == nil {
		return
	}
	p.mu.Lock()
	p.open--
	p.mu.Unlock()
	_ = c.Close()
}

// Stats reports the current idle and open connection counts.
func (p *Pool) Stats() (idle, open int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), p.open
}

// Close marks the pool closed and drains the idle connections. Held
// connections are closed as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case c := <-p.idle:
			p.mu.Lock()
			p.open--
			p.mu.Unlock()
			_ = c.Close()
		default:
			return
		}
	}
}
