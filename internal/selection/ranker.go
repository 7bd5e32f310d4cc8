package selection

import (
	"sort"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

const (
	// MinFinalConfidence is the portfolio gate; picks below it are dropped
	MinFinalConfidence = 0.4
	// DefaultTopN caps the shortlist
	DefaultTopN = 10
)

// Empty-result reasons
const (
	ReasonNoData    = "No stock data available"
	ReasonNoSignals = "No signals passed final filters"
)

// Ranker filters, orders and truncates picks across instruments
// ⭐ SSOT: cross-instrument ranking is done here only
type Ranker struct {
	topN   int
	logger *logger.Logger
}

// NewRanker creates a new ranker; topN <= 0 means DefaultTopN
func NewRanker(topN int, logger *logger.Logger) *Ranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Ranker{
		topN:   topN,
		logger: logger,
	}
}

// Rank keeps picks with confidence >= 0.4 and reward/risk >= MinRiskRewardRatio,
// orders them by confidence × reward/risk (descending, stable) and keeps the top N.
// picks must be in universe order; totalAnalyzed is the universe size.
func (r *Ranker) Rank(picks []contracts.Pick, totalAnalyzed int, cfg strategyconfig.RiskConfig) ([]contracts.Pick, contracts.Summary) {
	if totalAnalyzed == 0 {
		return nil, contracts.Summary{Reason: ReasonNoData}
	}

	valid := make([]contracts.Pick, 0, len(picks))
	for _, p := range picks {
		sig := p.Signal
		if sig.Confidence < MinFinalConfidence || !cfg.MeetsRewardRisk(sig.RewardRiskRatio) {
			continue
		}
		valid = append(valid, p)
	}

	// Stable: equal scores keep universe order
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Signal.RankScore() > valid[j].Signal.RankScore()
	})

	if len(valid) > r.topN {
		valid = valid[:r.topN]
	}

	summary := Summarize(valid, totalAnalyzed)

	r.logger.WithFields(map[string]interface{}{
		"total_stocks": totalAnalyzed,
		"picks":        len(picks),
		"passed":       len(valid),
	}).Info("Ranking completed")

	return valid, summary
}

// Summarize computes aggregate statistics over the final shortlist
func Summarize(picks []contracts.Pick, totalAnalyzed int) contracts.Summary {
	summary := contracts.Summary{
		TotalStocksAnalyzed: totalAnalyzed,
		SignalsGenerated:    len(picks),
	}
	if len(picks) == 0 {
		summary.Reason = ReasonNoSignals
		return summary
	}

	var confSum, rrSum float64
	for _, p := range picks {
		confSum += p.Signal.Confidence
		rrSum += p.Signal.RewardRiskRatio
		summary.TotalRiskAmount += p.Position.RiskAmount
		summary.TotalPositionValue += p.Position.PositionValue

		switch p.Signal.Direction {
		case contracts.DirectionBuy:
			summary.BuySignals++
		case contracts.DirectionSell:
			summary.SellSignals++
		}
	}

	n := float64(len(picks))
	summary.AvgConfidence = confSum / n
	summary.AvgRiskReward = rrSum / n

	return summary
}
