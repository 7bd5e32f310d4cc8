package strategyconfig

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// ValidationError is a fatal configuration problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a non-fatal recommendation
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validate checks all required constraints
func Validate(cfg RiskConfig) error {
	if err := validateFraction(cfg.MaxRiskPerTrade, "risk.max_risk_per_trade"); err != nil {
		return err
	}
	if err := validateFraction(cfg.MaxPositionSize, "risk.max_position_size"); err != nil {
		return err
	}
	if !isPositive(cfg.MinRiskRewardRatio) {
		return ValidationError{"risk.min_risk_reward_ratio", "must be > 0"}
	}
	if !isPositive(cfg.VolumeThresholdMultiplier) {
		return ValidationError{"risk.volume_threshold_multiplier", "must be > 0"}
	}
	if !isNonNegative(cfg.GapThresholdPercent) {
		return ValidationError{"risk.gap_threshold_percent", "must be >= 0"}
	}

	for _, name := range sortedKeys(cfg.StrategyWeights) {
		w := cfg.StrategyWeights[name]
		if math.IsNaN(w) || w < 0 || w > 1 {
			return ValidationError{
				Field:   fmt.Sprintf("risk.strategy_weights.%s", name),
				Message: "must be in range [0, 1]",
			}
		}
	}

	// === Pre-screen ===
	if !isNonNegative(cfg.MinPrice) {
		return ValidationError{"risk.min_price", "must be >= 0"}
	}
	if !isPositive(cfg.MaxPrice) {
		return ValidationError{"risk.max_price", "must be > 0"}
	}
	if cfg.MinPrice > cfg.MaxPrice {
		return ValidationError{"risk", "min_price must be <= max_price"}
	}
	if !isNonNegative(cfg.MinGapPercent) {
		return ValidationError{"risk.min_gap_percent", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg RiskConfig) []Warning {
	var warnings []Warning

	if cfg.MaxRiskPerTrade > 0.05 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_RISK_PER_TRADE",
			Message: fmt.Sprintf("max_risk_per_trade %.1f%% exceeds 5%% of account", cfg.MaxRiskPerTrade*100),
		})
	}

	if cfg.MinRiskRewardRatio < 1.0 {
		warnings = append(warnings, Warning{
			Code:    "LOW_REWARD_RISK",
			Message: "min_risk_reward_ratio < 1.0: expected reward is below the risk taken",
		})
	}

	sum := 0.0
	for _, name := range sortedKeys(cfg.StrategyWeights) {
		sum += cfg.StrategyWeights[name]
		if !slices.Contains(KnownWeightKeys, name) {
			warnings = append(warnings, Warning{
				Code:    "UNKNOWN_STRATEGY_WEIGHT",
				Message: fmt.Sprintf("strategy_weights.%s matches no evaluator", name),
			})
		}
	}
	if len(cfg.StrategyWeights) > 0 && math.Abs(sum-1.0) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_NOT_NORMALIZED",
			Message: fmt.Sprintf("strategy weights sum to %.4f, not 1.0", sum),
		})
	}

	return warnings
}

// === Helper Functions ===

// validateFraction checks that v is in (0, 1]
func validateFraction(v float64, field string) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return ValidationError{field, "must be in range (0, 1]"}
	}
	return nil
}

func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
