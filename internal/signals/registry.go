package signals

import (
	"fmt"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
)

// MinCandidateConfidence is the registry gate; candidates must exceed it
const MinCandidateConfidence = 0.3

// Registry runs every evaluator against a snapshot and gates the results
// ⭐ SSOT: the evaluator set and its order are fixed here
type Registry struct {
	kinds  []Kind
	eval   evalFunc
	logger *logger.Logger
}

type evalFunc func(Kind, contracts.MarketSnapshot, strategyconfig.RiskConfig) (contracts.CandidateSignal, bool)

// NewRegistry creates a registry over All()
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		kinds:  All(),
		eval:   Kind.Evaluate,
		logger: log,
	}
}

// Kinds returns the evaluators in registration order
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Evaluate returns the candidates that pass confidence > 0.3 and
// reward/risk >= MinRiskRewardRatio, in registration order.
// A failing evaluator is logged and skipped; the others still run.
func (r *Registry) Evaluate(s contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) []contracts.CandidateSignal {
	var out []contracts.CandidateSignal

	for _, kind := range r.kinds {
		c, ok, err := r.safeEvaluate(kind, s, cfg)
		if err != nil {
			metrics.EvaluatorFailures.WithLabelValues(kind.String()).Inc()
			r.logger.WithFields(map[string]interface{}{
				"symbol":   s.Symbol,
				"strategy": kind.String(),
				"error":    err.Error(),
			}).Warn("Evaluator failed, skipping")
			continue
		}
		if !ok {
			continue
		}

		if c.Confidence <= MinCandidateConfidence || !cfg.MeetsRewardRisk(c.RewardRiskRatio) {
			continue
		}

		metrics.CandidatesTotal.WithLabelValues(c.Strategy).Inc()
		out = append(out, c)
	}

	return out
}

// safeEvaluate isolates one evaluator from panics
func (r *Registry) safeEvaluate(kind Kind, s contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) (c contracts.CandidateSignal, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c, ok = contracts.CandidateSignal{}, false
			err = fmt.Errorf("panic in %s: %v", kind, rec)
		}
	}()

	c, ok = r.eval(kind, s, cfg)
	return c, ok, nil
}
