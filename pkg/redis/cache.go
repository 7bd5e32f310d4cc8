package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching utilities
// ⭐ SSOT: cache helpers live here only
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value; a missing key returns (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// Publish sends a JSON message on a prefixed channel
func (c *Cache) Publish(ctx context.Context, channel string, value interface{}) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("publish marshal failed: %w", err)
	}

	return c.client.Redis().Publish(ctx, c.Channel(channel), data).Err()
}

// Subscribe delivers raw payloads from a prefixed channel until ctx is done.
// Returns nil immediately when Redis is disabled.
func (c *Cache) Subscribe(ctx context.Context, channel string, handle func([]byte)) error {
	if !c.client.Enabled() {
		return nil
	}

	sub := c.client.Redis().Subscribe(ctx, c.Channel(channel))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}

// Channel returns the full channel name
func (c *Cache) Channel(channel string) string {
	return fmt.Sprintf("%s:pubsub:%s", c.prefix, channel)
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // quotes
	TTLMedium = 10 * time.Minute // screener lists
	TTLLong   = 1 * time.Hour
	TTLDaily  = 24 * time.Hour // run results
)

// Common cache key generators
func LatestResultKey() string {
	return "signals:latest"
}

func RunKey(runID string) string {
	return fmt.Sprintf("signals:run:%s", runID)
}

func MostActiveKey(date string) string {
	return fmt.Sprintf("universe:most_active:%s", date)
}

// Channels
const ResultsChannel = "signals:results"
