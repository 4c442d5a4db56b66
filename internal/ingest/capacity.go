package ingest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cranewatch/internal/models"
)

// ConfigStore is the slice of persistence the capacity cache needs.
type ConfigStore interface {
	// MaxLoadCapacity returns the configured capacity in kg; the bool is
	// false when the crane has no configuration row.
	MaxLoadCapacity(ctx context.Context, craneID int64) (float64, bool, error)
}

// CapacityCache resolves and caches rated load capacity per crane.
// Shared across all ingestion workers; each crane has its own lock so
// concurrent capacity updates for one crane cannot lose writes while
// unrelated cranes proceed unblocked.
type CapacityCache struct {
	store  ConfigStore
	logger *zap.Logger

	mu      sync.Mutex
	entries map[int64]*capacityEntry
}

type capacityEntry struct {
	mu     sync.Mutex
	loaded bool
	value  float64
}

// NewCapacityCache returns an empty cache backed by store.
func NewCapacityCache(store ConfigStore, logger *zap.Logger) *CapacityCache {
	return &CapacityCache{
		store:   store,
		logger:  logger,
		entries: make(map[int64]*capacityEntry),
	}
}

func (c *CapacityCache) entry(craneID int64) *capacityEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[craneID]
	if !ok {
		e = &capacityEntry{}
		c.entries[craneID] = e
	}
	return e
}

// Resolve returns the crane's capacity in kg: cached value, else the
// configuration row, else the crane's rated tonnage converted to kg.
// Lookup errors fall back to the rated tonnage without caching, so a
// transient store failure does not pin a stale fallback.
func (c *CapacityCache) Resolve(ctx context.Context, crane *models.Crane) float64 {
	fallback := crane.CapacityTonnes * 1000

	e := c.entry(crane.ID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return e.value
	}
	capacity, found, err := c.store.MaxLoadCapacity(ctx, crane.ID)
	if err != nil {
		c.logger.Warn("capacity lookup failed, using rated capacity",
			zap.Int64("crane_id", crane.ID), zap.Error(err))
		return fallback
	}
	if !found {
		capacity = fallback
	}
	e.loaded = true
	e.value = capacity
	return capacity
}

// Preload warms the cache for the given cranes at startup.
func (c *CapacityCache) Preload(ctx context.Context, cranes []models.Crane) {
	for i := range cranes {
		c.Resolve(ctx, &cranes[i])
	}
	c.logger.Info("preloaded crane capacities", zap.Int("cranes", len(cranes)))
}

// Update runs persist under the crane's lock and, on success, installs
// the new capacity in the cache. persist is expected to commit the
// configuration write (typically as part of the message transaction);
// when it fails the cache keeps its previous value.
func (c *CapacityCache) Update(ctx context.Context, craneID int64, capacity float64, persist func(context.Context) error) error {
	e := c.entry(craneID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := persist(ctx); err != nil {
		return err
	}
	e.loaded = true
	e.value = capacity
	return nil
}
