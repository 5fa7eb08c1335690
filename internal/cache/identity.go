package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homenest/homenest/internal/model"
)

// identityPrefix is the Redis key prefix for verified credentials.
const identityPrefix = "identity:"

type cachedIdentity struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetIdentity returns the subject cached for a credential key.
// Returns ErrCacheMiss when nothing usable is stored.
func (c *Cache) GetIdentity(ctx context.Context, key string) (model.Identity, time.Time, error) {
	data, err := c.client.Get(ctx, identityPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", time.Time{}, ErrCacheMiss
		}
		return "", time.Time{}, fmt.Errorf("redis get identity: %w", err)
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil || cached.Subject == "" {
		// Corrupted entry - treat as miss
		return "", time.Time{}, ErrCacheMiss
	}

	return model.Identity(cached.Subject), cached.ExpiresAt, nil
}

// SetIdentity caches a verified subject for ttl.
func (c *Cache) SetIdentity(ctx context.Context, key string, subject model.Identity, expiresAt time.Time, ttl time.Duration) error {
	data, err := json.Marshal(cachedIdentity{Subject: subject.String(), ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, identityPrefix+key, data, ttl).Err()
}
