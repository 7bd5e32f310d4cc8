package contracts

import (
	"math"
	"time"
)

// MarketSnapshot is the immutable per-instrument input of one engine run
// ⭐ SSOT: acquisition → engine snapshot shape
type MarketSnapshot struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`

	// nil when no premarket activity was observed
	PremarketPrice *float64 `json:"premarket_price,omitempty"`

	PremarketVolume int64   `json:"premarket_volume"`
	RegularVolume   int64   `json:"regular_volume"`
	AverageVolume   float64 `json:"avg_volume"` // 0 = no baseline

	// Derived by the producer; the engine consumes it as-is
	GapPercent float64 `json:"gap_percent"`

	MarketCap float64   `json:"market_cap,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TotalVolume returns regular plus premarket volume
func (s MarketSnapshot) TotalVolume() int64 {
	return s.RegularVolume + s.PremarketVolume
}

// VolumeRatio returns combined volume over the average baseline.
// Without a baseline the ratio is 1.0, meaning volume confirmation is skipped.
func (s MarketSnapshot) VolumeRatio() float64 {
	if s.AverageVolume <= 0 {
		return 1.0
	}
	return float64(s.TotalVolume()) / s.AverageVolume
}

// PremarketOrCurrent returns the premarket price, falling back to the current price
func (s MarketSnapshot) PremarketOrCurrent() float64 {
	if s.PremarketPrice != nil && *s.PremarketPrice != 0 {
		return *s.PremarketPrice
	}
	return s.CurrentPrice
}

// ComputeGapPercent is used by producers to derive GapPercent
func ComputeGapPercent(current, previousClose float64) float64 {
	if previousClose <= 0 {
		return 0
	}
	gap := (current - previousClose) / previousClose * 100
	if math.IsNaN(gap) || math.IsInf(gap, 0) {
		return 0
	}
	return gap
}

// Float64Ptr is a small helper for optional prices
func Float64Ptr(v float64) *float64 {
	return &v
}
