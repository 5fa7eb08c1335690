package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/homenest/homenest/internal/model"
)

const ratingColumns = `id, author_email, property_id, score, comment, extra::text, created_at`

// CreateRating inserts a new rating. An empty Extra is stored as {}.
func (r *Repository) CreateRating(ctx context.Context, rating *model.Rating) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO ratings (id, author_email, property_id, score, comment, extra, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`

	extra := string(rating.Extra)
	if extra == "" {
		extra = "{}"
	}

	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.AuthorEmail,
		rating.PropertyID,
		rating.Score,
		rating.Comment,
		extra,
		rating.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to create rating", err)
	}

	return nil
}

// ListRatingsByAuthor returns the author's ratings, newest first.
func (r *Repository) ListRatingsByAuthor(ctx context.Context, author string) ([]*model.Rating, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + ratingColumns + `
		FROM ratings
		WHERE author_email = $1
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.pool.Query(ctx, query, author)
	if err != nil {
		return nil, wrapErr("failed to list ratings", err)
	}
	defer rows.Close()

	ratings := make([]*model.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, wrapErr("failed to scan rating", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating ratings", err)
	}

	return ratings, nil
}

func scanRating(row pgx.Row) (*model.Rating, error) {
	var (
		rating model.Rating
		extra  []byte
	)
	err := row.Scan(
		&rating.ID,
		&rating.AuthorEmail,
		&rating.PropertyID,
		&rating.Score,
		&rating.Comment,
		&extra,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if string(extra) != "{}" {
		rating.Extra = json.RawMessage(extra)
	}
	return &rating, nil
}
