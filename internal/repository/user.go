package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/homenest/homenest/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, profile::text, created_at`

// RegisterUser inserts the user unless one with the same email exists, in
// which case the stored user is returned with created=false. The insert is
// a single conditional statement, so concurrent registrations for one email
// cannot produce two rows.
func (r *Repository) RegisterUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, email, profile, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userColumns

	profile := string(user.Profile)
	if profile == "" {
		profile = "{}"
	}

	inserted, err := scanUser(r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		profile,
		user.CreatedAt,
	))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isUniqueViolation(err) {
			return nil, false, ErrEmailExists
		}
		return nil, false, wrapErr("failed to register user", err)
	}

	existing, err := r.getUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.getUserByEmail(ctx, email)
}

func (r *Repository) getUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("failed to get user by email", err)
	}

	return user, nil
}

// CountUsersByEmail returns how many user rows carry the email.
func (r *Repository) CountUsersByEmail(ctx context.Context, email string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&n); err != nil {
		return 0, wrapErr("failed to count users", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user    model.User
		profile []byte
	)
	if err := row.Scan(&user.ID, &user.Email, &profile, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Profile = json.RawMessage(profile)
	return &user, nil
}
