package signals

import (
	"fmt"
	"math"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// evaluateGapMomentum trades opening gaps confirmed by volume.
// Gap up: continuation. Gap down: bounce with a wider stop.
func evaluateGapMomentum(s contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) (contracts.CandidateSignal, bool) {
	gap := s.GapPercent
	price := s.CurrentPrice
	volumeRatio := s.VolumeRatio()

	switch {
	case gap >= cfg.GapThresholdPercent:
		if volumeRatio < cfg.VolumeThresholdMultiplier {
			return contracts.CandidateSignal{}, false
		}
		c, ok := levels(price, 0.97, 1.06)
		if !ok {
			return c, false
		}
		c.Direction = contracts.DirectionBuy
		c.Confidence = math.Min(0.9, (gap/10.0)*(volumeRatio/3.0))
		c.Rationale = fmt.Sprintf("Gap up %.1f%% with %.1fx volume", gap, volumeRatio)
		return c, true

	case gap <= -cfg.GapThresholdPercent:
		if volumeRatio < cfg.VolumeThresholdMultiplier {
			return contracts.CandidateSignal{}, false
		}
		c, ok := levels(price, 0.95, 1.08)
		if !ok {
			return c, false
		}
		c.Direction = contracts.DirectionBuy
		c.Confidence = math.Min(0.8, (math.Abs(gap)/15.0)*(volumeRatio/3.0))
		c.Rationale = fmt.Sprintf("Gap down %.1f%% bounce play with %.1fx volume", gap, volumeRatio)
		return c, true
	}

	return contracts.CandidateSignal{}, false
}
