package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/homenest/homenest/internal/model"
)

// Common errors for property repository operations.
var (
	ErrPropertyNotFound = errors.New("property not found")
	// ErrOwnerMismatch is returned by owner-conditioned writes when the
	// property exists but belongs to someone else.
	ErrOwnerMismatch = errors.New("property owner mismatch")
)

const propertyColumns = `id, owner_email, name, short_description, category, price, location, image, inserted_at, updated_at`

// CreateProperty inserts a new property.
func (r *Repository) CreateProperty(ctx context.Context, p *model.Property) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO properties (id, owner_email, name, short_description, category, price, location, image, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.OwnerEmail,
		p.Name,
		p.ShortDescription,
		p.Category,
		p.Price,
		p.Location,
		p.Image,
		p.InsertedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to create property", err)
	}

	return nil
}

// GetPropertyByID retrieves a property by its ID.
func (r *Repository) GetPropertyByID(ctx context.Context, id string) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, wrapErr("failed to get property by ID", err)
	}

	return p, nil
}

// ListProperties returns every property, or only those of owner when it is
// non-empty. Results are materialized before returning.
func (r *Repository) ListProperties(ctx context.Context, owner string) ([]*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + propertyColumns + ` FROM properties`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner_email = $1`
		args = append(args, owner)
	}
	query += ` ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to list properties", err)
	}
	return collectProperties(rows)
}

// LatestProperties returns the n most recently inserted properties, newest
// first. Equal timestamps fall back to insertion order.
func (r *Repository) LatestProperties(ctx context.Context, n int) ([]*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + propertyColumns + `
		FROM properties
		ORDER BY inserted_at DESC, seq DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, wrapErr("failed to list latest properties", err)
	}
	return collectProperties(rows)
}

// UpdateProperty overwrites the mutable columns of p, but only while the
// stored owner still equals owner. Owner, ID and insertion time are never
// written. An unchanged row still counts as updated.
func (r *Repository) UpdateProperty(ctx context.Context, p *model.Property, owner string) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE properties
		SET name = $3, short_description = $4, category = $5, price = $6, location = $7, image = $8, updated_at = $9
		WHERE id = $1 AND owner_email = $2
		RETURNING ` + propertyColumns

	updated, err := scanProperty(r.pool.QueryRow(ctx, query,
		p.ID,
		owner,
		p.Name,
		p.ShortDescription,
		p.Category,
		p.Price,
		p.Location,
		p.Image,
		p.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMiss(ctx, p.ID)
		}
		return nil, wrapErr("failed to update property", err)
	}

	return updated, nil
}

// DeleteProperty removes the property while its stored owner equals owner.
func (r *Repository) DeleteProperty(ctx context.Context, id, owner string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1 AND owner_email = $2`, id, owner)
	if err != nil {
		return 0, wrapErr("failed to delete property", err)
	}

	if result.RowsAffected() == 0 {
		return 0, r.classifyMiss(ctx, id)
	}

	return result.RowsAffected(), nil
}

// classifyMiss tells an absent property from one whose owner did not match
// an owner-conditioned write.
func (r *Repository) classifyMiss(ctx context.Context, id string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM properties WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return wrapErr("failed to check property existence", err)
	}
	if exists {
		return ErrOwnerMismatch
	}
	return ErrPropertyNotFound
}

func collectProperties(rows pgx.Rows) ([]*model.Property, error) {
	defer rows.Close()

	properties := make([]*model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, wrapErr("failed to scan property", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating properties", err)
	}

	return properties, nil
}

// scanProperty scans a single row into a Property model.
func scanProperty(row pgx.Row) (*model.Property, error) {
	var p model.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerEmail,
		&p.Name,
		&p.ShortDescription,
		&p.Category,
		&p.Price,
		&p.Location,
		&p.Image,
		&p.InsertedAt,
		&p.UpdatedAt,
	)
	return &p, err
}
