package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/metrics"
)

const plantCachePrefix = "plants:"

// CachedPlantStore provides read-through plant list caching: Redis → store.
// The telemetry simulator lists every connected identity's plants on every
// tick; the cache keeps that load off the database. Creates write through
// to the store and invalidate the owner's cached list.
type CachedPlantStore struct {
	rdb   goredis.Cmdable
	store domain.PlantStore
	ttl   time.Duration
}

// NewCachedPlantStore wraps store with a Redis cache using the given TTL.
func NewCachedPlantStore(rdb goredis.Cmdable, store domain.PlantStore, ttl time.Duration) *CachedPlantStore {
	return &CachedPlantStore{rdb: rdb, store: store, ttl: ttl}
}

// ListByOwner looks up the owner's plants with read-through caching.
// Redis failures are logged and fall through to the underlying store.
func (c *CachedPlantStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Plant, error) {
	key := plantCachePrefix + ownerID.String()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var plants []domain.Plant
		if err := json.Unmarshal(data, &plants); err != nil {
			slog.Warn("Failed to unmarshal cached plant list, falling through",
				"user_id", ownerID.String(), "error", err)
		} else {
			metrics.PlantCacheHits.Inc()
			return plants, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		slog.Warn("Plant cache GET failed, falling through to store",
			"user_id", ownerID.String(), "error", err)
	}

	plants, err := c.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	metrics.PlantCacheMisses.Inc()

	// Populate the cache (best-effort)
	if encoded, err := json.Marshal(plants); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			slog.Warn("Failed to populate plant cache", "user_id", ownerID.String(), "error", err)
		}
	}

	return plants, nil
}

// Create writes through to the store and invalidates the owner's cached list.
func (c *CachedPlantStore) Create(ctx context.Context, ownerID uuid.UUID, name, plantType string) (*domain.Plant, error) {
	plant, err := c.store.Create(ctx, ownerID, name, plantType)
	if err != nil {
		return nil, err
	}

	if err := c.invalidate(ctx, ownerID); err != nil {
		// Stale until TTL expiry; the next tick self-corrects.
		slog.Warn("Failed to invalidate plant cache", "user_id", ownerID.String(), "error", err)
	}
	return plant, nil
}

func (c *CachedPlantStore) invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if err := c.rdb.Del(ctx, plantCachePrefix+ownerID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate plant cache: %w", err)
	}
	return nil
}
