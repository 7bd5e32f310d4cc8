package contracts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeRatio(t *testing.T) {
	s := MarketSnapshot{RegularVolume: 2_000_000, PremarketVolume: 500_000, AverageVolume: 1_000_000}
	assert.Equal(t, int64(2_500_000), s.TotalVolume())
	assert.InDelta(t, 2.5, s.VolumeRatio(), 1e-9)

	s.AverageVolume = 0
	assert.Equal(t, 1.0, s.VolumeRatio())
}

func TestPremarketOrCurrent(t *testing.T) {
	s := MarketSnapshot{CurrentPrice: 10}
	assert.Equal(t, 10.0, s.PremarketOrCurrent())

	s.PremarketPrice = Float64Ptr(0)
	assert.Equal(t, 10.0, s.PremarketOrCurrent())

	s.PremarketPrice = Float64Ptr(11)
	assert.Equal(t, 11.0, s.PremarketOrCurrent())
}

func TestComputeGapPercent(t *testing.T) {
	assert.InDelta(t, 5.0, ComputeGapPercent(105, 100), 1e-9)
	assert.InDelta(t, -2.5, ComputeGapPercent(97.5, 100), 1e-9)
	assert.Equal(t, 0.0, ComputeGapPercent(105, 0))
	assert.Equal(t, 0.0, ComputeGapPercent(math.Inf(1), 100))
}

func TestCandidateSignalHelpers(t *testing.T) {
	c := CandidateSignal{Confidence: 0.5, EntryPrice: 50, StopLoss: 52, TakeProfit: 46, RewardRiskRatio: 2}
	assert.Equal(t, 1.0, c.RankScore())
	assert.Equal(t, 2.0, c.PriceRisk())
	assert.Equal(t, 4.0, c.PriceReward())
}
