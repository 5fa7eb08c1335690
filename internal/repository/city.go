package repository

import (
	"context"
	"encoding/json"

	"github.com/homenest/homenest/internal/model"
)

// ListCities returns the city reference list ordered by name.
func (r *Repository) ListCities(ctx context.Context) ([]*model.City, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, name, metadata::text FROM cities ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("failed to list cities", err)
	}
	defer rows.Close()

	cities := make([]*model.City, 0)
	for rows.Next() {
		var (
			city     model.City
			metadata []byte
		)
		if err := rows.Scan(&city.ID, &city.Name, &metadata); err != nil {
			return nil, wrapErr("failed to scan city", err)
		}
		city.Metadata = json.RawMessage(metadata)
		cities = append(cities, &city)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating cities", err)
	}

	return cities, nil
}

// CreateCity inserts a city. Used by seeding tools and tests.
func (r *Repository) CreateCity(ctx context.Context, city *model.City) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	metadata := string(city.Metadata)
	if metadata == "" {
		metadata = "{}"
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO cities (id, name, metadata) VALUES ($1, $2, $3::jsonb)`,
		city.ID, city.Name, metadata)
	if err != nil {
		return wrapErr("failed to create city", err)
	}
	return nil
}
