package contracts

// Direction is the side of a trading signal
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// CandidateSignal is produced by one evaluator for one instrument
// ⭐ SSOT: evaluator → registry → selector signal shape
type CandidateSignal struct {
	Symbol          string    `json:"symbol"`
	Strategy        string    `json:"strategy"` // evaluator display name
	Direction       Direction `json:"signal_type"`
	Confidence      float64   `json:"confidence"` // 0.0 ~ 1.0
	EntryPrice      float64   `json:"entry_price"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit      float64   `json:"take_profit"`
	RewardRiskRatio float64   `json:"risk_reward_ratio"` // finite, > 0
	Rationale       string    `json:"reasoning"`
}

// RankScore is the cross-instrument ranking key (confidence × reward/risk)
func (c CandidateSignal) RankScore() float64 {
	return c.Confidence * c.RewardRiskRatio
}

// PriceRisk returns the absolute distance between entry and stop
func (c CandidateSignal) PriceRisk() float64 {
	return abs(c.EntryPrice - c.StopLoss)
}

// PriceReward returns the absolute distance between target and entry
func (c CandidateSignal) PriceReward() float64 {
	return abs(c.TakeProfit - c.EntryPrice)
}

// SelectedSignal is the single candidate kept for an instrument.
// WeightedScore is only used to pick it; it is not carried into results.
type SelectedSignal struct {
	CandidateSignal
	WeightedScore float64 `json:"-"`
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
