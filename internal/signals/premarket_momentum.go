package signals

import (
	"fmt"
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

const (
	// minimum premarket move, percent
	premarketMoveThreshold = 2.0
	// share of average daily volume that counts as heavy premarket trading
	premarketVolumeShare = 0.1
)

// evaluatePremarketMomentum trades the premarket move against the previous close.
// Up moves: continuation. Down moves: reversal with a wider stop.
func evaluatePremarketMomentum(s contracts.MarketSnapshot, _ strategyconfig.RiskConfig) (contracts.CandidateSignal, bool) {
	if s.PreviousClose <= 0 {
		return contracts.CandidateSignal{}, false
	}

	move := (s.PremarketOrCurrent() - s.PreviousClose) / s.PreviousClose * 100
	if !finite(move) || math.Abs(move) < premarketMoveThreshold {
		return contracts.CandidateSignal{}, false
	}

	pmRatio := 1.0
	if s.AverageVolume > 0 && s.PremarketVolume > 0 {
		pmRatio = float64(s.PremarketVolume) / (s.AverageVolume * premarketVolumeShare)
	}

	price := s.CurrentPrice

	var (
		c   contracts.CandidateSignal
		ok  bool
		why string
	)
	switch {
	case move > premarketMoveThreshold:
		c, ok = levels(price, 0.97, 1.06)
		why = fmt.Sprintf("Premarket momentum +%.1f%% with volume", move)
	case move < -premarketMoveThreshold:
		c, ok = levels(price, 0.94, 1.09)
		why = fmt.Sprintf("Premarket oversold %.1f%% reversal play", move)
	default:
		return contracts.CandidateSignal{}, false
	}
	if !ok {
		return c, false
	}

	c.Direction = contracts.DirectionBuy
	c.Confidence = math.Min(0.8, (math.Abs(move)/8.0)*pmRatio)
	c.Rationale = why
	return c, true
}
