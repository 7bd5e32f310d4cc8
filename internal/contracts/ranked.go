package contracts

// Pick is one instrument's selected signal with its sizing, passed to the ranker
// ⭐ SSOT: selector/sizer → ranker hand-off
type Pick struct {
	Snapshot MarketSnapshot `json:"snapshot"`
	Signal   SelectedSignal `json:"signal"`
	Position SizedPosition  `json:"position"`
}

// Summary holds aggregate statistics over the final shortlist.
// Averages and totals are unrounded here; results round them.
type Summary struct {
	TotalStocksAnalyzed int     `json:"total_stocks_analyzed"`
	SignalsGenerated    int     `json:"signals_generated"`
	AvgConfidence       float64 `json:"avg_confidence"`
	AvgRiskReward       float64 `json:"avg_risk_reward"`
	BuySignals          int     `json:"buy_signals"`
	SellSignals         int     `json:"sell_signals"`
	TotalRiskAmount     float64 `json:"total_risk_amount"`
	TotalPositionValue  float64 `json:"total_position_value"`

	// Set when the shortlist is empty
	Reason string `json:"reason,omitempty"`
}
