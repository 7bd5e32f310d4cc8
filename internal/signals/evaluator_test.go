package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

func snapshot(gap float64, regular, premarket int64, avg float64) contracts.MarketSnapshot {
	prev := 100.0
	price := prev * (1 + gap/100)
	return contracts.MarketSnapshot{
		Symbol:          "TEST",
		CurrentPrice:    price,
		PreviousClose:   prev,
		RegularVolume:   regular,
		PremarketVolume: premarket,
		AverageVolume:   avg,
		GapPercent:      gap,
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Gap Momentum", GapMomentum.String())
	assert.Equal(t, "Volume Breakout", VolumeBreakout.String())
	assert.Equal(t, "Premarket Momentum", PremarketMomentum.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestGapMomentumGapUp(t *testing.T) {
	cfg := strategyconfig.Default()
	// volume ratio 2.5
	s := snapshot(5.0, 2_000_000, 500_000, 1_000_000)

	c, ok := GapMomentum.Evaluate(s, cfg)
	require.True(t, ok)

	assert.Equal(t, contracts.DirectionBuy, c.Direction)
	assert.Equal(t, "Gap Momentum", c.Strategy)
	assert.Equal(t, "TEST", c.Symbol)
	assert.InDelta(t, 0.5*(2.5/3.0), c.Confidence, 1e-9)
	assert.InDelta(t, 0.417, c.Confidence, 0.001)
	assert.InDelta(t, s.CurrentPrice*0.97, c.StopLoss, 1e-9)
	assert.InDelta(t, s.CurrentPrice*1.06, c.TakeProfit, 1e-9)
	assert.InDelta(t, 2.0, c.RewardRiskRatio, 1e-9)
	assert.Equal(t, "Gap up 5.0% with 2.5x volume", c.Rationale)
}

func TestGapMomentumGapDown(t *testing.T) {
	cfg := strategyconfig.Default()
	s := snapshot(-6.0, 3_000_000, 0, 1_000_000)

	c, ok := GapMomentum.Evaluate(s, cfg)
	require.True(t, ok)

	assert.Equal(t, contracts.DirectionBuy, c.Direction)
	assert.InDelta(t, math.Min(0.8, (6.0/15.0)*(3.0/3.0)), c.Confidence, 1e-9)
	assert.InDelta(t, 8.0/5.0, c.RewardRiskRatio, 1e-9)
	assert.Contains(t, c.Rationale, "bounce play")
}

func TestGapMomentumConfidenceCap(t *testing.T) {
	cfg := strategyconfig.Default()
	s := snapshot(20.0, 10_000_000, 0, 1_000_000)

	c, ok := GapMomentum.Evaluate(s, cfg)
	require.True(t, ok)
	assert.Equal(t, 0.9, c.Confidence)
}

func TestGapMomentumNoBaselineUsesUnitRatio(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.VolumeThresholdMultiplier = 1.0
	s := snapshot(5.0, 0, 0, 0)

	c, ok := GapMomentum.Evaluate(s, cfg)
	require.True(t, ok)
	assert.InDelta(t, 0.5*(1.0/3.0), c.Confidence, 1e-9)
}

func TestGapMomentumRequiresVolume(t *testing.T) {
	cfg := strategyconfig.Default()
	s := snapshot(5.0, 1_000_000, 0, 1_000_000)

	_, ok := GapMomentum.Evaluate(s, cfg)
	assert.False(t, ok)
}

func TestVolumeBreakout(t *testing.T) {
	cfg := strategyconfig.Default()

	tests := []struct {
		name string
		gap  float64
		vol  int64
		ok   bool
		dir  contracts.Direction
	}{
		{"spike with gap up", 2.0, 4_000_000, true, contracts.DirectionBuy},
		{"spike with gap down", -2.0, 4_000_000, true, contracts.DirectionSell},
		{"spike without gap", 0.5, 4_000_000, false, ""},
		{"below 1.5x multiplier", 2.0, 2_500_000, false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := VolumeBreakout.Evaluate(snapshot(tc.gap, tc.vol, 0, 1_000_000), cfg)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.dir, c.Direction)
			assert.InDelta(t, 0.8, c.Confidence, 1e-9)
			assert.InDelta(t, 2.0, c.RewardRiskRatio, 1e-9)
		})
	}
}

func TestVolumeBreakoutSellLevels(t *testing.T) {
	s := snapshot(-3.0, 4_000_000, 0, 1_000_000)

	c, ok := VolumeBreakout.Evaluate(s, strategyconfig.Default())
	require.True(t, ok)

	assert.Greater(t, c.StopLoss, c.EntryPrice)
	assert.Less(t, c.TakeProfit, c.EntryPrice)
	assert.Greater(t, c.RewardRiskRatio, 0.0)
}

func TestVolumeBreakoutRequiresBaseline(t *testing.T) {
	_, ok := VolumeBreakout.Evaluate(snapshot(5.0, 9_000_000, 0, 0), strategyconfig.Default())
	assert.False(t, ok)
}

func TestPremarketMomentum(t *testing.T) {
	cfg := strategyconfig.Default()

	t.Run("up move uses premarket price", func(t *testing.T) {
		s := contracts.MarketSnapshot{
			Symbol:          "UP",
			CurrentPrice:    100,
			PreviousClose:   100,
			PremarketPrice:  contracts.Float64Ptr(104),
			PremarketVolume: 100_000,
			AverageVolume:   1_000_000,
		}
		c, ok := PremarketMomentum.Evaluate(s, cfg)
		require.True(t, ok)

		assert.Equal(t, contracts.DirectionBuy, c.Direction)
		// pm ratio = 100k / (1M × 0.1) = 1.0
		assert.InDelta(t, 4.0/8.0, c.Confidence, 1e-9)
		assert.InDelta(t, 97.0, c.StopLoss, 1e-9)
		assert.InDelta(t, 106.0, c.TakeProfit, 1e-9)
		assert.Equal(t, "Premarket momentum +4.0% with volume", c.Rationale)
	})

	t.Run("down move is a reversal buy", func(t *testing.T) {
		s := contracts.MarketSnapshot{
			Symbol:        "DOWN",
			CurrentPrice:  95,
			PreviousClose: 100,
		}
		c, ok := PremarketMomentum.Evaluate(s, cfg)
		require.True(t, ok)

		assert.Equal(t, contracts.DirectionBuy, c.Direction)
		assert.InDelta(t, 5.0/8.0, c.Confidence, 1e-9)
		assert.InDelta(t, 1.5, c.RewardRiskRatio, 1e-9)
	})

	t.Run("exactly two percent emits nothing", func(t *testing.T) {
		s := contracts.MarketSnapshot{CurrentPrice: 102, PreviousClose: 100}
		_, ok := PremarketMomentum.Evaluate(s, cfg)
		assert.False(t, ok)
	})

	t.Run("small move", func(t *testing.T) {
		s := contracts.MarketSnapshot{CurrentPrice: 101, PreviousClose: 100}
		_, ok := PremarketMomentum.Evaluate(s, cfg)
		assert.False(t, ok)
	})
}

func TestPremarketMomentumZeroPreviousClose(t *testing.T) {
	s := contracts.MarketSnapshot{
		Symbol:         "ZERO",
		CurrentPrice:   10,
		PreviousClose:  0,
		PremarketPrice: contracts.Float64Ptr(12),
	}

	_, ok := PremarketMomentum.Evaluate(s, strategyconfig.Default())
	assert.False(t, ok)
}

func TestEvaluateIsTotal(t *testing.T) {
	cfg := strategyconfig.Default()
	nan := math.NaN()
	inf := math.Inf(1)

	inputs := []contracts.MarketSnapshot{
		{},
		{CurrentPrice: 0, PreviousClose: 0, GapPercent: 50, AverageVolume: 1},
		{CurrentPrice: nan, PreviousClose: 100, GapPercent: 5},
		{CurrentPrice: 100, PreviousClose: inf, GapPercent: 5},
		{CurrentPrice: 100, PreviousClose: 90, GapPercent: nan, AverageVolume: 1},
		{CurrentPrice: 100, PreviousClose: 90, PremarketPrice: contracts.Float64Ptr(nan)},
		{CurrentPrice: 100, PreviousClose: 90, GapPercent: 11, RegularVolume: 1 << 40, AverageVolume: 1e-300},
	}

	for _, s := range inputs {
		for _, kind := range All() {
			c, ok := kind.Evaluate(s, cfg)
			if !ok {
				assert.Equal(t, contracts.CandidateSignal{}, c)
				continue
			}
			assert.False(t, math.IsNaN(c.RewardRiskRatio) || math.IsInf(c.RewardRiskRatio, 0))
			assert.Greater(t, c.RewardRiskRatio, 0.0)
			assert.GreaterOrEqual(t, c.Confidence, 0.0)
			assert.LessOrEqual(t, c.Confidence, 1.0)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	_, ok := Kind(42).Evaluate(snapshot(5.0, 3_000_000, 0, 1_000_000), strategyconfig.Default())
	assert.False(t, ok)
}
