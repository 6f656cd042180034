package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/models"
)

// Cache stores reverse-geocode responses in redis. Photos from one
// flight session cluster tightly, so sibling uploads frequently hit the
// same 6-decimal coordinate and skip the provider call entirely.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a geocode cache from the redis configuration.
// Returns nil when redis is not configured; a nil cache is a valid
// always-miss cache.
func NewCache(cfg config.RedisConfig) *Cache {
	if !cfg.Enabled() {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{rdb: rdb, ttl: cfg.TTL}
}

// Ping checks the redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(coord models.Coordinate) string {
	return fmt.Sprintf("revgeo:%.6f,%.6f", coord.Latitude, coord.Longitude)
}

// Get returns the cached address for a coordinate. ok is false on miss.
func (c *Cache) Get(ctx context.Context, coord models.Coordinate) (*models.ResolvedAddress, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	raw, err := c.rdb.Get(ctx, cacheKey(coord)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("geocode cache get: %w", err)
	}

	var addr models.ResolvedAddress
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return nil, false, fmt.Errorf("geocode cache decode: %w", err)
	}
	return &addr, true, nil
}

// Set stores a resolved address for a coordinate.
func (c *Cache) Set(ctx context.Context, coord models.Coordinate, addr *models.ResolvedAddress) error {
	if c == nil || addr == nil {
		return nil
	}

	raw, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("geocode cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(coord), string(raw), c.ttl).Err(); err != nil {
		return fmt.Errorf("geocode cache set: %w", err)
	}
	return nil
}
