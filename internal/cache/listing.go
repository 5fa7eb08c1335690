package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homenest/homenest/internal/model"
)

const (
	// featuredGenKey counts featured invalidations. Pages live in a hash
	// named after the current generation, one field per page size.
	featuredGenKey = "listing:featured:gen"
	citiesKey      = "listing:cities"
)

func featuredPageKey(gen int64) string {
	return "listing:featured:v" + strconv.FormatInt(gen, 10)
}

// GetFeatured returns the cached latest-n properties together with the
// generation they were looked up in. On ErrCacheMiss the generation is
// still valid and should be handed to SetFeatured.
func (c *Cache) GetFeatured(ctx context.Context, n int) ([]*model.Property, int64, error) {
	gen, err := c.client.Get(ctx, featuredGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("redis get featured generation: %w", err)
	}

	data, err := c.client.HGet(ctx, featuredPageKey(gen), strconv.Itoa(n)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, ErrCacheMiss
		}
		return nil, 0, fmt.Errorf("redis hget featured: %w", err)
	}

	var props []*model.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, gen, ErrCacheMiss
	}
	return props, gen, nil
}

// SetFeatured caches the latest-n properties under generation gen. A page
// read before an invalidation lands in a generation nobody reads any more
// and simply expires.
func (c *Cache) SetFeatured(ctx context.Context, gen int64, n int, props []*model.Property, ttl time.Duration) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal featured: %w", err)
	}

	key := featuredPageKey(gen)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(n), data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache featured: %w", err)
	}
	return nil
}

// InvalidateFeatured moves readers to a fresh generation and drops the
// pages of the previous one.
func (c *Cache) InvalidateFeatured(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, featuredGenKey).Result()
	if err != nil {
		return fmt.Errorf("redis incr featured generation: %w", err)
	}
	return c.client.Del(ctx, featuredPageKey(gen-1)).Err()
}

// GetCities returns the cached city list.
func (c *Cache) GetCities(ctx context.Context) ([]*model.City, error) {
	data, err := c.client.Get(ctx, citiesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get cities: %w", err)
	}

	var cities []*model.City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, ErrCacheMiss
	}
	return cities, nil
}

// SetCities caches the city list.
func (c *Cache) SetCities(ctx context.Context, cities []*model.City, ttl time.Duration) error {
	data, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("marshal cities: %w", err)
	}
	return c.client.Set(ctx, citiesKey, data, ttl).Err()
}
