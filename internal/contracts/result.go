package contracts

import "time"

// Result is the engine output for one run
// ⭐ SSOT: engine → report/store/api result shape
type Result struct {
	RunID           string         `json:"run_id"`
	Timestamp       time.Time      `json:"timestamp"`
	DurationSeconds float64        `json:"analysis_duration_seconds"`
	Summary         Summary        `json:"summary"`
	Signals         []SignalRecord `json:"signals"`
	Config          ConfigEcho     `json:"config"`
}

// SignalRecord is a finalized, rounded signal ready for display or storage
type SignalRecord struct {
	Symbol          string         `json:"symbol"`
	Strategy        string         `json:"strategy"`
	Direction       Direction      `json:"signal_type"`
	Confidence      float64        `json:"confidence"`
	CurrentPrice    float64        `json:"current_price"`
	EntryPrice      float64        `json:"entry_price"`
	StopLoss        float64        `json:"stop_loss"`
	TakeProfit      float64        `json:"take_profit"`
	RewardRiskRatio float64        `json:"risk_reward_ratio"`
	GapPercent      float64        `json:"gap_percent"`
	Rationale       string         `json:"reasoning"`
	PositionSizing  PositionSizing `json:"position_sizing"`
	VolumeInfo      VolumeInfo     `json:"volume_info"`
}

// PositionSizing is the rounded sizing block of a signal record
type PositionSizing struct {
	Shares          int64   `json:"shares"`
	PositionValue   float64 `json:"position_value"`
	PositionPercent float64 `json:"position_percent"`
	RiskAmount      float64 `json:"risk_amount"`
	PotentialProfit float64 `json:"potential_profit"`
	PotentialLoss   float64 `json:"potential_loss"`
}

// VolumeInfo gives the volume context behind a signal
type VolumeInfo struct {
	CurrentVolume int64   `json:"current_volume"`
	AvgVolume     int64   `json:"avg_volume"`
	VolumeRatio   float64 `json:"volume_ratio"`
}

// ConfigEcho repeats the risk settings a run was computed with
type ConfigEcho struct {
	MaxRiskPerTrade           float64 `json:"max_risk_per_trade"`
	MinRiskRewardRatio        float64 `json:"min_risk_reward_ratio"`
	GapThresholdPercent       float64 `json:"gap_threshold_percent"`
	VolumeThresholdMultiplier float64 `json:"volume_threshold_multiplier"`
}

// IsEmpty reports whether the run produced no signals
func (r *Result) IsEmpty() bool {
	return len(r.Signals) == 0
}
