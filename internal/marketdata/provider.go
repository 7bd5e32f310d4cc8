package marketdata

import (
	"context"
	"errors"

	"github.com/wonny/premarket-signals/internal/contracts"
)

// ErrNoData is returned when no snapshot could be assembled for any symbol
var ErrNoData = errors.New("no market data available")

// Provider assembles market snapshots for a symbol list
type Provider interface {
	Fetch(ctx context.Context, symbols []string) ([]contracts.MarketSnapshot, error)
}

var (
	_ Provider                   = (*YahooProvider)(nil)
	_ Provider                   = (*FileProvider)(nil)
	_ contracts.SnapshotProvider = (*YahooProvider)(nil)
	_ contracts.UniverseSource   = (*Universe)(nil)
)
