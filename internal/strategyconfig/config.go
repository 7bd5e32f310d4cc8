package strategyconfig

import "strings"

// Config is the strategy file: identity plus the risk settings a run uses
type Config struct {
	Meta Meta       `yaml:"meta" json:"meta"`
	Risk RiskConfig `yaml:"risk" json:"risk"`
}

// Meta identifies a strategy file
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// RiskConfig holds every tunable the signal engine reads.
// It is a value object: passed by value into each run and never mutated.
// ⭐ SSOT: thresholds, weights and caps live here and nowhere else
type RiskConfig struct {
	MaxRiskPerTrade           float64            `yaml:"max_risk_per_trade" json:"max_risk_per_trade"`                   // fraction of account
	MinRiskRewardRatio        float64            `yaml:"min_risk_reward_ratio" json:"min_risk_reward_ratio"`             // reward / risk
	MaxPositionSize           float64            `yaml:"max_position_size" json:"max_position_size"`                     // fraction of account
	VolumeThresholdMultiplier float64            `yaml:"volume_threshold_multiplier" json:"volume_threshold_multiplier"` // × average volume
	GapThresholdPercent       float64            `yaml:"gap_threshold_percent" json:"gap_threshold_percent"`             // percent
	StrategyWeights           map[string]float64 `yaml:"strategy_weights" json:"strategy_weights"`

	// Pre-screen
	MinPrice      float64 `yaml:"min_price" json:"min_price"`
	MaxPrice      float64 `yaml:"max_price" json:"max_price"`
	MinGapPercent float64 `yaml:"min_gap_percent" json:"min_gap_percent"`
}

// DefaultWeight applies to strategies missing from StrategyWeights
const DefaultWeight = 0.5

// Strategy weight keys
const (
	WeightGapMomentum       = "gap_momentum"
	WeightVolumeBreakout    = "volume_breakout"
	WeightPremarketMomentum = "premarket_momentum"
)

// KnownWeightKeys lists the weight keys matched by a registered evaluator
var KnownWeightKeys = []string{WeightGapMomentum, WeightVolumeBreakout, WeightPremarketMomentum}

// Default returns the standard risk settings
func Default() RiskConfig {
	return RiskConfig{
		MaxRiskPerTrade:           0.02,
		MinRiskRewardRatio:        2.0,
		MaxPositionSize:           0.10,
		VolumeThresholdMultiplier: 2.0,
		GapThresholdPercent:       3.0,
		StrategyWeights:           defaultWeights(),
		MinPrice:                  1.0,
		MaxPrice:                  500.0,
		MinGapPercent:             1.0,
	}
}

// Conservative trades less often with tighter risk
func Conservative() RiskConfig {
	cfg := Default()
	cfg.MaxRiskPerTrade = 0.01
	cfg.MinRiskRewardRatio = 3.0
	cfg.MaxPositionSize = 0.05
	cfg.GapThresholdPercent = 5.0
	cfg.VolumeThresholdMultiplier = 3.0
	return cfg
}

// Aggressive accepts smaller setups with larger positions
func Aggressive() RiskConfig {
	cfg := Default()
	cfg.MaxRiskPerTrade = 0.03
	cfg.MinRiskRewardRatio = 1.5
	cfg.MaxPositionSize = 0.15
	cfg.GapThresholdPercent = 1.5
	cfg.VolumeThresholdMultiplier = 1.5
	return cfg
}

// Preset returns a named preset (default, conservative, aggressive)
func Preset(name string) (RiskConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default(), nil
	case "conservative":
		return Conservative(), nil
	case "aggressive":
		return Aggressive(), nil
	default:
		return RiskConfig{}, ValidationError{"preset", "unknown preset: " + name}
	}
}

// DefaultConfig wraps Default() in a strategy file
func DefaultConfig() *Config {
	return &Config{
		Meta: Meta{StrategyID: "premarket_default", Version: "1.0.0"},
		Risk: Default(),
	}
}

// WeightFor returns the weight for a strategy display name.
// "Gap Momentum" → gap_momentum; unknown names weigh DefaultWeight.
func (c RiskConfig) WeightFor(strategy string) float64 {
	if w, ok := c.StrategyWeights[NormalizeName(strategy)]; ok {
		return w
	}
	return DefaultWeight
}

// NormalizeName maps a display name to its weight key
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func defaultWeights() map[string]float64 {
	return map[string]float64{
		WeightGapMomentum:       0.4,
		WeightVolumeBreakout:    0.3,
		WeightPremarketMomentum: 0.3,
	}
}

// MeetsRewardRisk reports whether rr satisfies MinRiskRewardRatio.
// The comparison is exact: a ratio a float step below the minimum fails.
func (c RiskConfig) MeetsRewardRisk(rr float64) bool {
	return rr >= c.MinRiskRewardRatio
}
