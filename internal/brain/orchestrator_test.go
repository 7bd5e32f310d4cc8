package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/risk"
	"github.com/wonny/premarket-signals/internal/selection"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

func newTestEngine(opts ...EngineOption) *Engine {
	return NewEngine(risk.DefaultSizingContext(), logger.Nop(), opts...)
}

// gapper builds a snapshot that fires Gap Momentum (and usually the others)
func gapper(symbol string, gap float64, volumeRatio float64) contracts.MarketSnapshot {
	prev := 100.0
	return contracts.MarketSnapshot{
		Symbol:        symbol,
		CurrentPrice:  prev * (1 + gap/100),
		PreviousClose: prev,
		RegularVolume: int64(volumeRatio * 1_000_000),
		AverageVolume: 1_000_000,
		GapPercent:    gap,
	}
}

func TestRunEmptyUniverse(t *testing.T) {
	result, err := newTestEngine().Run(context.Background(), nil, strategyconfig.Default())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.Summary.SignalsGenerated)
	assert.Equal(t, selection.ReasonNoData, result.Summary.Reason)
	assert.NotNil(t, result.Signals)
	assert.Empty(t, result.Signals)
	assert.NotEmpty(t, result.RunID)
}

func TestRunNoSignals(t *testing.T) {
	quiet := []contracts.MarketSnapshot{
		{Symbol: "QUIET", CurrentPrice: 100, PreviousClose: 100, RegularVolume: 1_000_000, AverageVolume: 1_000_000},
	}

	result, err := newTestEngine().Run(context.Background(), quiet, strategyconfig.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.TotalStocksAnalyzed)
	assert.Equal(t, 0, result.Summary.SignalsGenerated)
	assert.Equal(t, selection.ReasonNoSignals, result.Summary.Reason)
}

func TestRunProducesRoundedRecords(t *testing.T) {
	cfg := strategyconfig.Default()
	snaps := []contracts.MarketSnapshot{gapper("AAPL", 5.0, 4.0)}

	result, err := newTestEngine().Run(context.Background(), snaps, cfg)
	require.NoError(t, err)
	require.Len(t, result.Signals, 1)

	rec := result.Signals[0]
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, contracts.DirectionBuy, rec.Direction)
	assert.Equal(t, 105.0, rec.CurrentPrice)
	assert.Equal(t, 5.0, rec.GapPercent)
	assert.Equal(t, int64(1_000_000), rec.VolumeInfo.AvgVolume)
	assert.Equal(t, 4.0, rec.VolumeInfo.VolumeRatio)
	assert.Greater(t, rec.PositionSizing.Shares, int64(0))
	assert.LessOrEqual(t, rec.PositionSizing.PositionValue, 10_000.0)
	assert.LessOrEqual(t, rec.PositionSizing.PositionPercent, 10.0)

	for _, v := range []float64{rec.EntryPrice, rec.StopLoss, rec.TakeProfit, rec.RewardRiskRatio} {
		assert.InDelta(t, v, float64(int64(v*100+0.5))/100, 1e-9)
	}

	assert.Equal(t, 1, result.Summary.SignalsGenerated)
	assert.Equal(t, 1, result.Summary.BuySignals)
	assert.Equal(t, rec.Confidence, result.Summary.AvgConfidence)
	assert.Empty(t, result.Summary.Reason)

	assert.Equal(t, cfg.MaxRiskPerTrade, result.Config.MaxRiskPerTrade)
	assert.Equal(t, cfg.GapThresholdPercent, result.Config.GapThresholdPercent)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := strategyconfig.Default()

	var snaps []contracts.MarketSnapshot
	for i := 0; i < 40; i++ {
		gap := 3.0 + float64(i%7)
		if i%3 == 0 {
			gap = -gap
		}
		snaps = append(snaps, gapper(fmt.Sprintf("S%02d", i), gap, 2.0+float64(i%5)))
	}

	fixed := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	engine := newTestEngine(WithWorkers(8), WithClock(func() time.Time { return fixed }))

	first, err := engine.Run(context.Background(), snaps, cfg)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), snaps, cfg)
	require.NoError(t, err)

	// with a fixed clock every field matches, run id included
	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
	assert.LessOrEqual(t, len(first.Signals), selection.DefaultTopN)
}

func TestRunTiesKeepUniverseOrder(t *testing.T) {
	var snaps []contracts.MarketSnapshot
	for i := 0; i < 12; i++ {
		snaps = append(snaps, gapper(fmt.Sprintf("TIE%02d", i), 5.0, 4.0))
	}

	result, err := newTestEngine(WithWorkers(4)).Run(context.Background(), snaps, strategyconfig.Default())
	require.NoError(t, err)
	require.Len(t, result.Signals, selection.DefaultTopN)

	for i, rec := range result.Signals {
		assert.Equal(t, fmt.Sprintf("TIE%02d", i), rec.Symbol)
	}
}

func TestRunSortedByConfidenceTimesRatio(t *testing.T) {
	snaps := []contracts.MarketSnapshot{
		gapper("WEAK", 3.0, 2.5),
		gapper("STRONG", 5.0, 5.0),
		gapper("MID", 4.0, 3.0),
	}

	result, err := newTestEngine().Run(context.Background(), snaps, strategyconfig.Default())
	require.NoError(t, err)
	require.NotEmpty(t, result.Signals)

	for i := 1; i < len(result.Signals); i++ {
		prev := result.Signals[i-1]
		cur := result.Signals[i]
		assert.GreaterOrEqual(t, prev.Confidence*prev.RewardRiskRatio+0.01, cur.Confidence*cur.RewardRiskRatio)
	}
	for _, rec := range result.Signals {
		assert.GreaterOrEqual(t, rec.Confidence, selection.MinFinalConfidence)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestEngine().Run(ctx, []contracts.MarketSnapshot{gapper("AAPL", 5.0, 4.0)}, strategyconfig.Default())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))
}

func TestRunUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	result, err := newTestEngine(WithClock(func() time.Time { return fixed })).Run(context.Background(), nil, strategyconfig.Default())
	require.NoError(t, err)

	assert.Equal(t, fixed, result.Timestamp)
	assert.Equal(t, 0.0, result.DurationSeconds)
	assert.Regexp(t, regexp.MustCompile(`^run_20260302_083000_[0-9a-f]{8}$`), result.RunID)
}

func TestNewRunID(t *testing.T) {
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	cfg := strategyconfig.Default()
	snaps := []contracts.MarketSnapshot{gapper("AAPL", 5.0, 4.0)}

	id := NewRunID(at, snaps, cfg)
	assert.Regexp(t, regexp.MustCompile(`^run_20260302_083000_[0-9a-f]{8}$`), id)
	assert.Equal(t, id, NewRunID(at, snaps, cfg))

	other := []contracts.MarketSnapshot{gapper("MSFT", 5.0, 4.0)}
	assert.NotEqual(t, id, NewRunID(at, other, cfg))
	assert.NotEqual(t, id, NewRunID(at.Add(time.Millisecond), snaps, cfg))

	cfg.MinRiskRewardRatio = 3.0
	assert.NotEqual(t, id, NewRunID(at, snaps, cfg))
}

func TestResultJSONShape(t *testing.T) {
	result, err := newTestEngine().Run(context.Background(), []contracts.MarketSnapshot{gapper("AAPL", 5.0, 4.0)}, strategyconfig.Default())
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{"run_id", "timestamp", "analysis_duration_seconds", "summary", "signals", "config"} {
		assert.Contains(t, decoded, key)
	}

	sig := decoded["signals"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"symbol", "strategy", "signal_type", "confidence", "risk_reward_ratio", "position_sizing", "volume_info"} {
		assert.Contains(t, sig, key)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   float64
	}{
		{0.41666666, 3, 0.417},
		{9.999, 2, 10.0},
		// stored just below the tie
		{2.675, 2, 2.67},
		{-1.45, 1, -1.4},
		{0.4115, 3, 0.411},
		{1.005, 2, 1.0},
		// exact ties go to even
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{2.5, 0, 2.0},
		{123456.785, 2, 123456.79},
		{0, 2, 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, round(tc.v, tc.places), "round(%v, %d)", tc.v, tc.places)
	}
	assert.True(t, math.IsNaN(round(math.NaN(), 2)))
}

func TestBuildResultSummarizesRoundedRecords(t *testing.T) {
	mk := func(symbol string, conf, rr, riskAmount, value float64) contracts.Pick {
		return contracts.Pick{
			Snapshot: contracts.MarketSnapshot{Symbol: symbol, CurrentPrice: 50, AverageVolume: 1_000_000},
			Signal: contracts.SelectedSignal{CandidateSignal: contracts.CandidateSignal{
				Symbol:          symbol,
				Direction:       contracts.DirectionBuy,
				Confidence:      conf,
				RewardRiskRatio: rr,
			}},
			Position: contracts.SizedPosition{Shares: 10, RiskAmount: riskAmount, PositionValue: value},
		}
	}
	picks := []contracts.Pick{
		mk("A", 0.4114, 2.004, 100.004, 5000.004),
		mk("B", 0.4124, 2.004, 100.004, 5000.004),
	}

	result := BuildResult("run", time.Now(), time.Second, picks, selection.Summarize(picks, 2), strategyconfig.Default())

	require.Len(t, result.Signals, 2)
	assert.Equal(t, 0.411, result.Signals[0].Confidence)
	assert.Equal(t, 0.412, result.Signals[1].Confidence)

	// mean of the rounded records is 0.4115, stored below the tie
	assert.Equal(t, 0.411, result.Summary.AvgConfidence)
	assert.Equal(t, 2.0, result.Summary.AvgRiskReward)
	assert.Equal(t, 200.0, result.Summary.TotalRiskAmount)
	assert.Equal(t, 10000.0, result.Summary.TotalPositionValue)
	assert.Equal(t, 2, result.Summary.SignalsGenerated)
	assert.Equal(t, 2, result.Summary.BuySignals)
}
