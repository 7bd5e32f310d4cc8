package contracts

// SizedPosition is the bounded trade derived from a selected signal
// Invariants: Shares >= 0, PositionValue <= account × max_position_size,
// RiskAmount <= account × max_risk_per_trade. No field is negative.
type SizedPosition struct {
	Shares          int64   `json:"shares"`
	PositionValue   float64 `json:"position_value"`
	PositionPercent float64 `json:"position_percent"`
	RiskAmount      float64 `json:"risk_amount"`
	PotentialProfit float64 `json:"potential_profit"`
	PotentialLoss   float64 `json:"potential_loss"`
}

// IsZero reports whether the position carries no shares
func (p SizedPosition) IsZero() bool {
	return p.Shares == 0
}
