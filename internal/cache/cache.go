// Package cache provides a read-through Redis cache for availability
// responses. Keys embed a per-facility generation counter; invalidation
// bumps the counter instead of scanning for keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache caches expanded availability views per facility.
// A nil client disables caching; every method becomes a no-op.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache over rdb with the given TTL.
func New(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func (c *AvailabilityCache) generation(ctx context.Context, facilityID string) int64 {
	gen, err := c.rdb.Get(ctx, genKey(facilityID)).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// Get loads a cached response into out. Returns false on miss or any
// transport problem; the caller just recomputes.
func (c *AvailabilityCache) Get(ctx context.Context, facilityID, fromDate, toDate string, out any) bool {
	if !c.enabled() {
		return false
	}
	key := entryKey(facilityID, c.generation(ctx, facilityID), fromDate, toDate)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

// Set stores a response under the facility's current generation.
func (c *AvailabilityCache) Set(ctx context.Context, facilityID, fromDate, toDate string, val any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	key := entryKey(facilityID, c.generation(ctx, facilityID), fromDate, toDate)
	_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate bumps the facility's generation so existing entries stop
// matching; they expire on their own TTL.
func (c *AvailabilityCache) Invalidate(ctx context.Context, facilityID string) {
	if !c.enabled() {
		return
	}
	_ = c.rdb.Incr(ctx, genKey(facilityID)).Err()
}

func genKey(facilityID string) string {
	return fmt.Sprintf("availability:gen:%s", facilityID)
}

func entryKey(facilityID string, gen int64, fromDate, toDate string) string {
	return fmt.Sprintf("availability:%s:%d:%s:%s", facilityID, gen, fromDate, toDate)
}
