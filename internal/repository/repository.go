// Package repository provides database access layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultStoreTimeout bounds a single store call when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// ErrStoreTimeout marks store calls that exceeded their deadline.
var ErrStoreTimeout = errors.New("store call timed out")

// Repository provides database access methods. One Repository is opened at
// startup and shared by all requests.
type Repository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string, timeout time.Duration) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	return &Repository{pool: pool, timeout: timeout}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// withTimeout derives the per-call deadline.
func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// wrapErr annotates a driver error, tagging deadline expiry with ErrStoreTimeout.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
