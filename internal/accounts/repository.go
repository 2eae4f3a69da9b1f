package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cvdesk/cvdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for service accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all accounts ordered by service name.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_name, username, password, notes, login_url, created_at, updated_at FROM service_accounts ORDER BY service_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.ServiceName, &a.Username, &a.Password, &a.Notes, &a.LoginURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Get fetches one account.
func (r *Repository) Get(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, service_name, username, password, notes, login_url, created_at, updated_at FROM service_accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.ServiceName, &a.Username, &a.Password, &a.Notes, &a.LoginURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, a *Account) (*Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO service_accounts (id, service_name, username, password, notes, login_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		a.ID, a.ServiceName, a.Username, a.Password, a.Notes, a.LoginURL)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, a.ID)
}

// Update persists account changes.
func (r *Repository) Update(ctx context.Context, a *Account) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE service_accounts SET service_name = $2, username = $3, password = $4, notes = $5, login_url = $6, updated_at = NOW() WHERE id = $1`,
		a.ID, a.ServiceName, a.Username, a.Password, a.Notes, a.LoginURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
