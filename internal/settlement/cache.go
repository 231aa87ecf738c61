package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const overviewKeyPrefix = "settlement:overview:"

// OverviewCache keeps computed month overviews in Redis so repeated reads of
// the same month skip the three-ledger scan. Writes to any of the underlying
// ledgers invalidate the affected month; a nil cache or an unreachable Redis
// degrades to fresh aggregation.
type OverviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOverviewCache instantiates the cache helper.
func NewOverviewCache(client *redis.Client, ttl time.Duration) *OverviewCache {
	return &OverviewCache{client: client, ttl: ttl}
}

// Get returns the cached overview and whether it was present.
func (c *OverviewCache) Get(ctx context.Context, month string) (*MonthOverview, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, overviewKeyPrefix+month).Bytes()
	if err != nil {
		return nil, false
	}
	var out MonthOverview
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// Set stores the overview with the configured TTL.
func (c *OverviewCache) Set(ctx context.Context, month string, out *MonthOverview) {
	if c == nil || c.client == nil || out == nil {
		return
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, overviewKeyPrefix+month, raw, c.ttl).Err()
}

// Invalidate drops the cached overview for one month.
func (c *OverviewCache) Invalidate(ctx context.Context, month string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, overviewKeyPrefix+month).Err()
}
