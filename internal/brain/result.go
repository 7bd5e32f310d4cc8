package brain

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// BuildResult assembles the rounded, display-ready result
// Prices, ratios and amounts: 2 dp. Confidence: 3 dp. Position percent: 1 dp.
// Summary means and totals are taken over the rounded records, then rounded again.
func BuildResult(
	runID string,
	timestamp time.Time,
	elapsed time.Duration,
	ranked []contracts.Pick,
	summary contracts.Summary,
	cfg strategyconfig.RiskConfig,
) *contracts.Result {
	records := make([]contracts.SignalRecord, 0, len(ranked))
	for _, p := range ranked {
		records = append(records, buildRecord(p))
	}

	summary = summarizeRecords(summary, records)

	return &contracts.Result{
		RunID:           runID,
		Timestamp:       timestamp,
		DurationSeconds: elapsed.Seconds(),
		Summary:         summary,
		Signals:         records,
		Config: contracts.ConfigEcho{
			MaxRiskPerTrade:           cfg.MaxRiskPerTrade,
			MinRiskRewardRatio:        cfg.MinRiskRewardRatio,
			GapThresholdPercent:       cfg.GapThresholdPercent,
			VolumeThresholdMultiplier: cfg.VolumeThresholdMultiplier,
		},
	}
}

func buildRecord(p contracts.Pick) contracts.SignalRecord {
	sig := p.Signal
	snap := p.Snapshot
	pos := p.Position
	total := snap.TotalVolume()

	return contracts.SignalRecord{
		Symbol:          sig.Symbol,
		Strategy:        sig.Strategy,
		Direction:       sig.Direction,
		Confidence:      round(sig.Confidence, 3),
		CurrentPrice:    round(snap.CurrentPrice, 2),
		EntryPrice:      round(sig.EntryPrice, 2),
		StopLoss:        round(sig.StopLoss, 2),
		TakeProfit:      round(sig.TakeProfit, 2),
		RewardRiskRatio: round(sig.RewardRiskRatio, 2),
		GapPercent:      round(snap.GapPercent, 2),
		Rationale:       sig.Rationale,
		PositionSizing: contracts.PositionSizing{
			Shares:          pos.Shares,
			PositionValue:   round(pos.PositionValue, 2),
			PositionPercent: round(pos.PositionPercent, 1),
			RiskAmount:      round(pos.RiskAmount, 2),
			PotentialProfit: round(pos.PotentialProfit, 2),
			PotentialLoss:   round(pos.PotentialLoss, 2),
		},
		VolumeInfo: contracts.VolumeInfo{
			CurrentVolume: total,
			AvgVolume:     int64(snap.AverageVolume),
			VolumeRatio:   round(float64(total)/math.Max(snap.AverageVolume, 1), 2),
		},
	}
}

// summarizeRecords replaces the aggregate fields of summary with ones computed from records
func summarizeRecords(summary contracts.Summary, records []contracts.SignalRecord) contracts.Summary {
	summary.AvgConfidence = 0
	summary.AvgRiskReward = 0
	summary.TotalRiskAmount = 0
	summary.TotalPositionValue = 0
	if len(records) == 0 {
		return summary
	}

	var confSum, rrSum, riskSum, valueSum float64
	for _, rec := range records {
		confSum += rec.Confidence
		rrSum += rec.RewardRiskRatio
		riskSum += rec.PositionSizing.RiskAmount
		valueSum += rec.PositionSizing.PositionValue
	}

	n := float64(len(records))
	summary.AvgConfidence = round(confSum/n, 3)
	summary.AvgRiskReward = round(rrSum/n, 2)
	summary.TotalRiskAmount = round(riskSum, 2)
	summary.TotalPositionValue = round(valueSum, 2)
	return summary
}

// round rounds the exact binary value of v to places, ties to even.
// 0.4115 is stored just below the tie, so it rounds to 0.411.
// Non-finite values pass through.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := exactDecimal(v).RoundBank(places).Float64()
	return f
}

// exactDecimal expands v without loss: a float64 with binary exponent e needs 53-e fraction digits
func exactDecimal(v float64) decimal.Decimal {
	_, exp := math.Frexp(v)
	digits := 53 - exp
	if digits < 0 {
		digits = 0
	}
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', digits, 64))
}
