package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/premarket-signals/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Publish(ctx, ResultsChannel, map[string]int{"n": 1}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := cache.Subscribe(ctx, ResultsChannel, func([]byte) {}); err != nil {
		t.Errorf("Subscribe() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "LatestResultKey",
			fn:       LatestResultKey,
			expected: "signals:latest",
		},
		{
			name:     "RunKey",
			fn:       func() string { return RunKey("run_20260302_083000_abcd1234") },
			expected: "signals:run:run_20260302_083000_abcd1234",
		},
		{
			name:     "MostActiveKey",
			fn:       func() string { return MostActiveKey("2026-03-02") },
			expected: "universe:most_active:2026-03-02",
		},
		{
			name:     "Channel",
			fn:       func() string { return NewCache(Disabled(), "premarket").Channel(ResultsChannel) },
			expected: "premarket:pubsub:signals:results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
