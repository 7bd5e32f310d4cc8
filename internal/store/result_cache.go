package store

import (
	"context"
	"fmt"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/pkg/redis"
)

// ResultCache keeps the latest run in Redis and fans it out over pub/sub.
// With a disabled client every call is a no-op.
type ResultCache struct {
	cache *redis.Cache
}

var _ contracts.ResultPublisher = (*ResultCache)(nil)

// NewResultCache creates a new result cache
func NewResultCache(cache *redis.Cache) *ResultCache {
	return &ResultCache{cache: cache}
}

// Publish stores the run as latest, by run id, and announces it on the results channel
func (c *ResultCache) Publish(ctx context.Context, result *contracts.Result) error {
	if err := c.SetLatest(ctx, result); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, redis.RunKey(result.RunID), result, redis.TTLDaily); err != nil {
		return fmt.Errorf("cache run %s: %w", result.RunID, err)
	}
	if err := c.cache.Publish(ctx, redis.ResultsChannel, result); err != nil {
		return fmt.Errorf("publish run %s: %w", result.RunID, err)
	}
	return nil
}

// SetLatest stores the run under the latest-result key
func (c *ResultCache) SetLatest(ctx context.Context, result *contracts.Result) error {
	if err := c.cache.Set(ctx, redis.LatestResultKey(), result, redis.TTLDaily); err != nil {
		return fmt.Errorf("cache latest result: %w", err)
	}
	return nil
}

// GetLatest returns the cached latest run, or (nil, nil) on a miss
func (c *ResultCache) GetLatest(ctx context.Context) (*contracts.Result, error) {
	return c.get(ctx, redis.LatestResultKey())
}

// Get returns a cached run by id, or (nil, nil) on a miss
func (c *ResultCache) Get(ctx context.Context, runID string) (*contracts.Result, error) {
	return c.get(ctx, redis.RunKey(runID))
}

func (c *ResultCache) get(ctx context.Context, key string) (*contracts.Result, error) {
	var result contracts.Result
	found, err := c.cache.Get(ctx, key, &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}
