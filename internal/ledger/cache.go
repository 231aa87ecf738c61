package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "ledger:balance:"

// BalanceCache keeps per-reseller balances in Redis. Every ledger write
// invalidates the owning reseller's entry; a nil cache or an unreachable
// Redis degrades to direct store queries.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache instantiates the cache helper.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(resellerID int64) string {
	return balanceKeyPrefix + strconv.FormatInt(resellerID, 10)
}

// Get returns the cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, resellerID int64) (float64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	v, err := c.client.Get(ctx, balanceKey(resellerID)).Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Set stores the balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, resellerID int64, balance float64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, balanceKey(resellerID), balance, c.ttl).Err()
}

// Invalidate drops the cached balance for one reseller.
func (c *BalanceCache) Invalidate(ctx context.Context, resellerID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, balanceKey(resellerID)).Err()
}
