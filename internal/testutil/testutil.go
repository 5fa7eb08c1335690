// Package testutil holds fixtures and in-memory collaborators shared by
// package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/homenest/homenest/internal/model"
)

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE users, properties, ratings, cities RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewID returns a fresh record identifier.
func NewID() string {
	return ulid.Make().String()
}

// NewTestProperty creates a property owned by owner with sensible defaults.
func NewTestProperty(t testing.TB, owner string) *model.Property {
	t.Helper()
	now := time.Now().UTC()
	return &model.Property{
		ID:               NewID(),
		OwnerEmail:       owner,
		Name:             "Sunny Loft",
		ShortDescription: "Two rooms near the river",
		Category:         "apartment",
		Price:            1200,
		Location:         "Dhaka",
		Image:            "https://images.example.com/loft.jpg",
		InsertedAt:       now,
		UpdatedAt:        now,
	}
}

// NewTestRating creates a rating by author for propertyID.
func NewTestRating(t testing.TB, author, propertyID string) *model.Rating {
	t.Helper()
	return &model.Rating{
		ID:          NewID(),
		AuthorEmail: author,
		PropertyID:  propertyID,
		Score:       4,
		Comment:     "Great stay",
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTestUser creates a user for email.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:        NewID(),
		Email:     email,
		Profile:   []byte(`{"name":"Test User"}`),
		CreatedAt: time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// NumPtr returns a pointer to a Number holding raw.
func NumPtr(raw string) *model.Number {
	n := model.NewNumber(raw)
	return &n
}
