package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// SubscriberRepo provides access to the subscribers table. Subscribers
// are created by registration, mutated by contact-info updates and
// late-count increments, and never deleted.
type SubscriberRepo struct {
	g *gateway.Gateway
}

// NewSubscriberRepo returns a SubscriberRepo bound to the gateway.
func NewSubscriberRepo(g *gateway.Gateway) *SubscriberRepo { return &SubscriberRepo{g: g} }

const subscriberColumns = `id, full_name, email, phone, vehicle_id, subscription_code, credit_card_ref, late_count, created_at`

func scanSubscriber(row *sql.Row) (*model.Subscriber, error) {
	var s model.Subscriber
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.Phone, &s.VehicleID,
		&s.SubscriptionCode, &s.CreditCardRef, &s.LateCount, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID fetches a subscriber by primary key. Returns ErrNotFound
// when no such subscriber exists.
func (r *SubscriberRepo) GetByID(ctx context.Context, id uint64) (*model.Subscriber, error) {
	const q = `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.Subscriber, error) {
		return scanSubscriber(c.QueryRowContext(ctx, q, id))
	})
}

// GetByIDAndCode fetches a subscriber by id and subscription code.
// This is the credential check behind the app and kiosk login.
func (r *SubscriberRepo) GetByIDAndCode(ctx context.Context, id uint64, code string) (*model.Subscriber, error) {
	const q = `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = ? AND subscription_code = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.Subscriber, error) {
		return scanSubscriber(c.QueryRowContext(ctx, q, id, strings.TrimSpace(code)))
	})
}

// Create inserts a new subscriber and populates the generated ID.
// Returns ErrDuplicate when the vehicle or email is already registered.
func (r *SubscriberRepo) Create(ctx context.Context, s *model.Subscriber) error {
	const q = `INSERT INTO subscribers (full_name, email, phone, vehicle_id, subscription_code, credit_card_ref)
	           VALUES (?, ?, ?, ?, ?, ?)`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		res, err := c.ExecContext(ctx, q,
			s.FullName, strings.ToLower(strings.TrimSpace(s.Email)), s.Phone,
			s.VehicleID, s.SubscriptionCode, s.CreditCardRef)
		if err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicate
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = uint64(id)
		return nil
	})
}

// UpdateContact updates a subscriber's email and/or phone. An empty
// argument leaves the stored value in place, and resubmitting the
// current values is not an error. Returns ErrNotFound when the
// subscriber does not exist.
func (r *SubscriberRepo) UpdateContact(ctx context.Context, id uint64, email, phone string) error {
	const q = `UPDATE subscribers
	           SET email = COALESCE(NULLIF(?, ''), email),
	               phone = COALESCE(NULLIF(?, ''), phone)
	           WHERE id = ?`
	return r.g.WithConnVoid(ctx, func(ctx context.Context, c *sql.Conn) error {
		// The driver reports changed rows rather than matched rows, so
		// existence is checked up front instead of via RowsAffected.
		var exists uint64
		err := c.QueryRowContext(ctx, `SELECT id FROM subscribers WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = c.ExecContext(ctx, q, strings.ToLower(strings.TrimSpace(email)), phone, id)
		return err
	})
}

// IncrementLateCount bumps the rolling late-arrival counter and
// returns the new value so the caller can apply the charge threshold.
func (r *SubscriberRepo) IncrementLateCount(ctx context.Context, id uint64) (int, error) {
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (int, error) {
		if _, err := c.ExecContext(ctx, `UPDATE subscribers SET late_count = late_count + 1 WHERE id = ?`, id); err != nil {
			return 0, err
		}
		var n int
		err := c.QueryRowContext(ctx, `SELECT late_count FROM subscribers WHERE id = ?`, id).Scan(&n)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return n, err
	})
}
