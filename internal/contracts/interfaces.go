package contracts

import "context"

// SnapshotProvider assembles market snapshots for a symbol list
// ⭐ SSOT: acquisition collaborator interface
type SnapshotProvider interface {
	Fetch(ctx context.Context, symbols []string) ([]MarketSnapshot, error)
}

// UniverseSource decides which symbols a run looks at
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// ResultRepository persists finished runs
// ⭐ SSOT: persistence collaborator interface
type ResultRepository interface {
	Save(ctx context.Context, result *Result, configHash string) error
	Latest(ctx context.Context) (*Result, error)
	GetByRunID(ctx context.Context, runID string) (*Result, error)
}

// ResultPublisher receives every finished run (websocket hub, cache)
type ResultPublisher interface {
	Publish(ctx context.Context, result *Result) error
}
