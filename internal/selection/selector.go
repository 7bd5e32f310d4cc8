package selection

import (
	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// Selector reduces one instrument's candidates to a single signal
// ⭐ SSOT: per-instrument selection (weighted score) is done here only
type Selector struct{}

// NewSelector creates a new selector
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns the candidate with the highest confidence × strategy weight.
// Ties keep the earliest candidate, so registration order decides.
func (s *Selector) Select(candidates []contracts.CandidateSignal, cfg strategyconfig.RiskConfig) (contracts.SelectedSignal, bool) {
	if len(candidates) == 0 {
		return contracts.SelectedSignal{}, false
	}

	best := contracts.SelectedSignal{
		CandidateSignal: candidates[0],
		WeightedScore:   weightedScore(candidates[0], cfg),
	}
	for _, c := range candidates[1:] {
		score := weightedScore(c, cfg)
		if score > best.WeightedScore {
			best = contracts.SelectedSignal{CandidateSignal: c, WeightedScore: score}
		}
	}

	return best, true
}

func weightedScore(c contracts.CandidateSignal, cfg strategyconfig.RiskConfig) float64 {
	return c.Confidence * cfg.WeightFor(c.Strategy)
}
