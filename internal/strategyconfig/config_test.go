package strategyconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := "../../config/strategy/premarket_default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "premarket_default", cfg.Meta.StrategyID)
	assert.Equal(t, Default(), cfg.Risk)
	assert.NotEmpty(t, yamlData)

	hash, err := Hash(cfg.Risk)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// same config, same hash
	hash2, _ := Hash(Default())
	assert.Equal(t, hash, hash2)
}

func TestParseKeepsDefaultsForMissingFields(t *testing.T) {
	cfg, err := Parse([]byte(`
risk:
  gap_threshold_percent: 4.5
`))
	require.NoError(t, err)

	assert.Equal(t, 4.5, cfg.Risk.GapThresholdPercent)
	assert.Equal(t, 0.02, cfg.Risk.MaxRiskPerTrade)
	assert.Equal(t, 0.4, cfg.Risk.StrategyWeights[WeightGapMomentum])
}

func TestParseReplacesWeights(t *testing.T) {
	cfg, err := Parse([]byte(`
risk:
  strategy_weights:
    gap_momentum: 1.0
`))
	require.NoError(t, err)

	assert.Len(t, cfg.Risk.StrategyWeights, 1)
	assert.Equal(t, DefaultWeight, cfg.Risk.WeightFor("Volume Breakout"))
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
risk:
  max_risk_per_trad: 0.02
`))
	assert.Error(t, err)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte(`
risk:
  max_risk_per_trade: 1.5
`))
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "risk.max_risk_per_trade", verr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RiskConfig)
		field  string
	}{
		{"default is valid", func(c *RiskConfig) {}, ""},
		{"zero risk", func(c *RiskConfig) { c.MaxRiskPerTrade = 0 }, "risk.max_risk_per_trade"},
		{"position over 100%", func(c *RiskConfig) { c.MaxPositionSize = 1.2 }, "risk.max_position_size"},
		{"zero min rr", func(c *RiskConfig) { c.MinRiskRewardRatio = 0 }, "risk.min_risk_reward_ratio"},
		{"negative gap", func(c *RiskConfig) { c.GapThresholdPercent = -1 }, "risk.gap_threshold_percent"},
		{"zero volume multiplier", func(c *RiskConfig) { c.VolumeThresholdMultiplier = 0 }, "risk.volume_threshold_multiplier"},
		{"weight above one", func(c *RiskConfig) {
			c.StrategyWeights = map[string]float64{"gap_momentum": 1.5}
		}, "risk.strategy_weights.gap_momentum"},
		{"min price above max", func(c *RiskConfig) { c.MinPrice = 600 }, "risk"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := Validate(cfg)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range []string{"default", "conservative", "aggressive"} {
		cfg, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, Validate(cfg), name)
	}

	c := Conservative()
	assert.Equal(t, 0.01, c.MaxRiskPerTrade)
	assert.Equal(t, 3.0, c.MinRiskRewardRatio)
	assert.Equal(t, 0.05, c.MaxPositionSize)
	assert.Equal(t, 5.0, c.GapThresholdPercent)
	assert.Equal(t, 3.0, c.VolumeThresholdMultiplier)

	a := Aggressive()
	assert.Equal(t, 0.03, a.MaxRiskPerTrade)
	assert.Equal(t, 1.5, a.MinRiskRewardRatio)
	assert.Equal(t, 0.15, a.MaxPositionSize)

	_, err := Preset("yolo")
	assert.Error(t, err)
}

func TestPresetsDoNotShareWeights(t *testing.T) {
	a := Default()
	b := Default()
	a.StrategyWeights[WeightGapMomentum] = 0.9

	assert.Equal(t, 0.4, b.StrategyWeights[WeightGapMomentum])
}

func TestWeightFor(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.4, cfg.WeightFor("Gap Momentum"))
	assert.Equal(t, 0.3, cfg.WeightFor("Volume Breakout"))
	assert.Equal(t, 0.3, cfg.WeightFor("Premarket Momentum"))
	assert.Equal(t, DefaultWeight, cfg.WeightFor("Mean Reversion"))

	var empty RiskConfig
	assert.Equal(t, DefaultWeight, empty.WeightFor("Gap Momentum"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "gap_momentum", NormalizeName("Gap Momentum"))
	assert.Equal(t, "premarket_momentum", NormalizeName("PREMARKET MOMENTUM"))
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	cfg := Default()
	cfg.MaxRiskPerTrade = 0.08
	cfg.MinRiskRewardRatio = 0.8
	cfg.StrategyWeights = map[string]float64{"gap_momentum": 0.5, "mean_reversion": 0.2}

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}

	assert.True(t, codes["HIGH_RISK_PER_TRADE"])
	assert.True(t, codes["LOW_REWARD_RISK"])
	assert.True(t, codes["UNKNOWN_STRATEGY_WEIGHT"])
	assert.True(t, codes["WEIGHTS_NOT_NORMALIZED"])
}

func TestMeetsRewardRisk(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.MeetsRewardRisk(2.0))
	assert.False(t, cfg.MeetsRewardRisk(1.9999999999999996))
	assert.True(t, cfg.MeetsRewardRisk(3.0))
	assert.False(t, cfg.MeetsRewardRisk(1.99))
}
