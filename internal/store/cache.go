package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache is a Redis read-through cache for the reporting
// surface's balance lookups. The ledger invalidates entries after
// each mutation; reads fall back to the ledger on a miss.
type BalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBalanceCache creates a cache over the given Redis client.
func NewBalanceCache(rdb *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{rdb: rdb, ttl: ttl}
}

func balanceKey(addr string) string {
	return "balance:" + addr
}

// Get returns the cached balance for addr, or false on a miss. Redis
// errors are treated as misses.
func (c *BalanceCache) Get(ctx context.Context, addr string) (decimal.Decimal, bool) {
	val, err := c.rdb.Get(ctx, balanceKey(addr)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Set stores the balance for addr with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, addr string, balance decimal.Decimal) {
	c.rdb.Set(ctx, balanceKey(addr), balance.String(), c.ttl)
}

// BalanceChanged invalidates the cached balance for addr. It
// implements the ledger's balance observer.
func (c *BalanceCache) BalanceChanged(addr string) {
	c.rdb.Del(context.Background(), balanceKey(addr))
}
