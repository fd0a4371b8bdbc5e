package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// AccountRepo reads staff credentials from the management_accounts
// table. Accounts are provisioned out of band; the server only ever
// looks them up for the management login check.
type AccountRepo struct {
	g *gateway.Gateway
}

// NewAccountRepo returns an AccountRepo bound to the gateway.
func NewAccountRepo(g *gateway.Gateway) *AccountRepo { return &AccountRepo{g: g} }

// GetByUsername fetches an account by its unique username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.ManagementAccount, error) {
	const q = `SELECT id, username, password_hash, role FROM management_accounts WHERE username = ?`
	return gateway.WithConn(r.g, ctx, func(ctx context.Context, c *sql.Conn) (*model.ManagementAccount, error) {
		var a model.ManagementAccount
		err := c.QueryRowContext(ctx, q, strings.TrimSpace(username)).Scan(
			&a.ID, &a.Username, &a.PasswordHash, &a.Role)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &a, nil
	})
}
