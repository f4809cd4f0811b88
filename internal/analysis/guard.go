package analysis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardPrefix = "analysis:inflight:"

// RedisGuard admits one analysis run per decision at a time across all
// API instances. The TTL bounds how long a crashed run can hold the slot.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, decisionID string) (bool, error) {
	return g.client.SetNX(ctx, guardPrefix+decisionID, "1", g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, decisionID string) error {
	return g.client.Del(ctx, guardPrefix+decisionID).Err()
}

// NopGuard admits every caller. It stands in when Redis is not
// configured, where a single process relies on the conditional writes
// alone.
type NopGuard struct{}

func (NopGuard) Acquire(ctx context.Context, decisionID string) (bool, error) {
	return true, nil
}

func (NopGuard) Release(ctx context.Context, decisionID string) error {
	return nil
}
