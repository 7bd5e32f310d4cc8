package selection

import (
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

// Screener drops instruments not worth evaluating before the engine runs
// ⭐ SSOT: pre-screen hard cuts are done here only
type Screener struct {
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(logger *logger.Logger) *Screener {
	return &Screener{
		logger: logger,
	}
}

// Screen keeps snapshots with price in [MinPrice, MaxPrice], some volume,
// and |gap| >= MinGapPercent. Input order is preserved.
func (s *Screener) Screen(snapshots []contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) []contracts.MarketSnapshot {
	passed := make([]contracts.MarketSnapshot, 0, len(snapshots))
	filtered := make(map[string]int) // reason -> count

	for _, snap := range snapshots {
		if reason := s.checkConditions(snap, cfg); reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, snap)
	}

	s.logger.WithFields(map[string]interface{}{
		"input":    len(snapshots),
		"passed":   len(passed),
		"filtered": filtered,
	}).Info("Screening completed")

	return passed
}

// checkConditions returns the first failed condition, or "" when all pass
func (s *Screener) checkConditions(snap contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) string {
	price := snap.CurrentPrice
	if math.IsNaN(price) || price < cfg.MinPrice || price > cfg.MaxPrice {
		return "price_range"
	}
	if snap.RegularVolume <= 0 && snap.PremarketVolume <= 0 {
		return "no_volume"
	}
	if math.IsNaN(snap.GapPercent) || math.Abs(snap.GapPercent) < cfg.MinGapPercent {
		return "small_gap"
	}
	return ""
}
