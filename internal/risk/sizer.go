package risk

import (
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// DefaultAccountValue is the notional account used when none is configured
const DefaultAccountValue = 100_000.0

// maxShares is the largest float64 below 2^63, so it converts to int64 safely
const maxShares = float64(1<<63 - 1024)

// SizingContext carries the account the positions are sized against
type SizingContext struct {
	AccountValue float64
}

// DefaultSizingContext returns a context over DefaultAccountValue
func DefaultSizingContext() SizingContext {
	return SizingContext{AccountValue: DefaultAccountValue}
}

// Sizer turns a selected signal into a bounded position (pure calculator)
// ⭐ SSOT: share count, risk budget and position caps are computed here only
type Sizer struct{}

// NewSizer creates a new sizer
func NewSizer() *Sizer {
	return &Sizer{}
}

// Size computes shares from the risk budget, then caps the position value.
// The position-size cap wins when both bind; share count only moves down.
// Degenerate inputs (zero price risk, non-positive entry) give a zero position.
func (s *Sizer) Size(sig contracts.CandidateSignal, cfg strategyconfig.RiskConfig, sc SizingContext) contracts.SizedPosition {
	account := sc.AccountValue
	entry := sig.EntryPrice
	if !positiveFinite(account) || !positiveFinite(entry) || !finite(sig.StopLoss) || !finite(sig.TakeProfit) {
		return contracts.SizedPosition{}
	}

	riskBudget := math.Max(0, account*cfg.MaxRiskPerTrade)
	priceRisk := sig.PriceRisk()
	if priceRisk == 0 {
		return contracts.SizedPosition{}
	}

	shares := math.Floor(riskBudget / priceRisk)
	positionValue := shares * entry

	maxAllowed := math.Max(0, account*cfg.MaxPositionSize)
	if positionValue > maxAllowed {
		shares = math.Floor(maxAllowed / entry)
		positionValue = shares * entry
	}

	if !finite(shares) || shares <= 0 {
		return contracts.SizedPosition{}
	}
	if shares > maxShares {
		shares = maxShares
		positionValue = shares * entry
	}

	riskAmount := shares * priceRisk
	return contracts.SizedPosition{
		Shares:          int64(shares),
		PositionValue:   positionValue,
		PositionPercent: positionValue / account * 100,
		RiskAmount:      riskAmount,
		PotentialProfit: shares * sig.PriceReward(),
		PotentialLoss:   riskAmount,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return finite(v) && v > 0
}
