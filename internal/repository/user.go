package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendwise/spendwise/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, first_name, last_name, created_at, updated_at`

// CreateUser inserts user with its own timestamps. Used by fixtures and tooling;
// request paths go through UpsertUser.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrEmailExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpsertUser mirrors an identity-provider account. Profile fields are
// refreshed on every call and created_at is kept from the first insert.
func (r *Repository) UpsertUser(ctx context.Context, user *model.User) (*model.User, error) {
	mirrored, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = now()
		RETURNING `+userColumns,
		user.ID, user.Email, user.FirstName, user.LastName,
	))
	switch {
	case err == nil:
		return mirrored, nil
	case isUniqueViolation(err):
		return nil, ErrEmailExists
	default:
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
