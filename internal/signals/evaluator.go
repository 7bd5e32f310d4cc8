package signals

import (
	"fmt"
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// Kind identifies one signal evaluator.
// The set is closed: adding a variant means extending Evaluate and All.
type Kind int

const (
	GapMomentum Kind = iota
	VolumeBreakout
	PremarketMomentum
)

// All returns every evaluator in registration order
func All() []Kind {
	return []Kind{GapMomentum, VolumeBreakout, PremarketMomentum}
}

// String returns the display name carried on candidate signals
func (k Kind) String() string {
	switch k {
	case GapMomentum:
		return "Gap Momentum"
	case VolumeBreakout:
		return "Volume Breakout"
	case PremarketMomentum:
		return "Premarket Momentum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Evaluate runs the evaluator against one snapshot.
// It is pure and total: any input yields either a fully populated candidate or false.
// ⭐ SSOT: per-strategy trigger rules live in the evaluate* functions
func (k Kind) Evaluate(s contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) (contracts.CandidateSignal, bool) {
	if !finite(s.CurrentPrice, s.PreviousClose, s.AverageVolume, s.GapPercent) {
		return contracts.CandidateSignal{}, false
	}
	if s.PremarketPrice != nil && !finite(*s.PremarketPrice) {
		return contracts.CandidateSignal{}, false
	}

	var (
		c  contracts.CandidateSignal
		ok bool
	)
	switch k {
	case GapMomentum:
		c, ok = evaluateGapMomentum(s, cfg)
	case VolumeBreakout:
		c, ok = evaluateVolumeBreakout(s, cfg)
	case PremarketMomentum:
		c, ok = evaluatePremarketMomentum(s, cfg)
	default:
		return contracts.CandidateSignal{}, false
	}
	if !ok {
		return contracts.CandidateSignal{}, false
	}

	c.Symbol = s.Symbol
	c.Strategy = k.String()
	if !valid(c) {
		return contracts.CandidateSignal{}, false
	}
	return c, true
}

// levels builds a candidate from entry and multipliers on it.
// A zero or non-finite risk distance yields false.
func levels(entry, stopMult, targetMult float64) (contracts.CandidateSignal, bool) {
	stop := entry * stopMult
	target := entry * targetMult

	rr, ok := rewardRisk(entry, stop, target)
	if !ok {
		return contracts.CandidateSignal{}, false
	}

	return contracts.CandidateSignal{
		EntryPrice:      entry,
		StopLoss:        stop,
		TakeProfit:      target,
		RewardRiskRatio: rr,
	}, true
}

// rewardRisk returns |target - entry| / |entry - stop|
func rewardRisk(entry, stop, target float64) (float64, bool) {
	risk := math.Abs(entry - stop)
	if risk == 0 || !finite(risk) {
		return 0, false
	}
	rr := math.Abs(target-entry) / risk
	if !finite(rr) || rr <= 0 {
		return 0, false
	}
	return rr, true
}

func valid(c contracts.CandidateSignal) bool {
	if !finite(c.Confidence, c.EntryPrice, c.StopLoss, c.TakeProfit, c.RewardRiskRatio) {
		return false
	}
	return c.Confidence >= 0 && c.Confidence <= 1 && c.RewardRiskRatio > 0
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
