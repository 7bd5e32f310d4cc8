package signals

import (
	"fmt"
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// breakoutMultiple scales the volume threshold for a breakout
const breakoutMultiple = 1.5

// evaluateVolumeBreakout trades volume spikes in the direction of the gap.
// Requires an average-volume baseline.
func evaluateVolumeBreakout(s contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) (contracts.CandidateSignal, bool) {
	if s.AverageVolume <= 0 {
		return contracts.CandidateSignal{}, false
	}

	volumeRatio := float64(s.TotalVolume()) / s.AverageVolume
	if volumeRatio < cfg.VolumeThresholdMultiplier*breakoutMultiple {
		return contracts.CandidateSignal{}, false
	}

	gap := s.GapPercent
	price := s.CurrentPrice

	var (
		c   contracts.CandidateSignal
		ok  bool
		dir contracts.Direction
		why string
	)
	switch {
	case gap > 1.0:
		c, ok = levels(price, 0.96, 1.08)
		dir = contracts.DirectionBuy
		why = fmt.Sprintf("Volume breakout %.1fx with %.1f%% gap up", volumeRatio, gap)
	case gap < -1.0:
		c, ok = levels(price, 1.04, 0.92)
		dir = contracts.DirectionSell
		why = fmt.Sprintf("Volume breakout %.1fx with %.1f%% gap down", volumeRatio, gap)
	default:
		return contracts.CandidateSignal{}, false
	}
	if !ok {
		return c, false
	}

	c.Direction = dir
	c.Confidence = math.Min(0.85, volumeRatio/5.0)
	c.Rationale = why
	return c, true
}
