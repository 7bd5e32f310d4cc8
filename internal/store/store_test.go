package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/pkg/config"
	"github.com/wonny/premarket-signals/pkg/database"
	"github.com/wonny/premarket-signals/pkg/redis"
)

func sampleResult(runID string) *contracts.Result {
	return &contracts.Result{
		RunID:           runID,
		Timestamp:       time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
		DurationSeconds: 1.25,
		Summary: contracts.Summary{
			TotalStocksAnalyzed: 3,
			SignalsGenerated:    1,
			AvgConfidence:       0.8,
			AvgRiskReward:       2,
			BuySignals:          1,
			TotalRiskAmount:     300,
			TotalPositionValue:  10_300,
		},
		Signals: []contracts.SignalRecord{{
			Symbol:          "AAPL",
			Strategy:        "Gap Momentum",
			Direction:       contracts.DirectionBuy,
			Confidence:      0.8,
			CurrentPrice:    103,
			EntryPrice:      103,
			StopLoss:        99.91,
			TakeProfit:      109.18,
			RewardRiskRatio: 2,
			GapPercent:      3,
			Rationale:       "Gap up 3.0% with 2.5x volume",
			PositionSizing:  contracts.PositionSizing{Shares: 100, PositionValue: 10_300},
			VolumeInfo:      contracts.VolumeInfo{CurrentVolume: 500_000, AvgVolume: 200_000, VolumeRatio: 2.5},
		}},
		Config: contracts.ConfigEcho{
			MaxRiskPerTrade:           0.02,
			MinRiskRewardRatio:        2,
			GapThresholdPercent:       3,
			VolumeThresholdMultiplier: 2,
		},
	}
}

func TestRunRowToResult(t *testing.T) {
	want := sampleResult("run_20260302_083000_abcd1234")

	summary, err := json.Marshal(want.Summary)
	require.NoError(t, err)
	cfg, err := json.Marshal(want.Config)
	require.NoError(t, err)
	record, err := json.Marshal(want.Signals[0])
	require.NoError(t, err)

	row := runRow{
		RunID:           want.RunID,
		RunAt:           want.Timestamp,
		DurationSeconds: want.DurationSeconds,
		Summary:         summary,
		Config:          cfg,
		Records:         [][]byte{record},
	}

	got, err := row.toResult()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunRowToResultEmpty(t *testing.T) {
	row := runRow{
		RunID:   "run_x",
		Summary: []byte(`{"total_stocks_analyzed":0,"signals_generated":0,"reason":"No stock data available"}`),
		Config:  []byte(`{}`),
	}

	got, err := row.toResult()
	require.NoError(t, err)
	assert.NotNil(t, got.Signals)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, "No stock data available", got.Summary.Reason)
}

func TestRunRowToResultBadJSON(t *testing.T) {
	row := runRow{Summary: []byte(`{`), Config: []byte(`{}`)}

	_, err := row.toResult()
	assert.Error(t, err)
}

func TestResultCacheDisabled(t *testing.T) {
	c := NewResultCache(redis.NewCache(redis.Disabled(), "test"))
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, sampleResult("run_a")))

	got, err := c.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "run_a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCacheRedis(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" || testing.Short() {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	c := NewResultCache(redis.NewCache(client, "store_test"))
	want := sampleResult("run_20260302_083000_cache000")
	require.NoError(t, c.Publish(ctx, want))

	got, err := c.Get(ctx, want.RunID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Len(t, got.Signals, 1)
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	repo := NewRunRepository(db.Pool)
	want := sampleResult("run_20260302_083000_repo0000")
	defer db.Pool.Exec(context.Background(), "DELETE FROM signals.runs WHERE run_id = $1", want.RunID)

	require.NoError(t, repo.Save(ctx, want, "hash"))
	// saving again replaces the run
	require.NoError(t, repo.Save(ctx, want, "hash"))

	got, err := repo.GetByRunID(ctx, want.RunID)
	require.NoError(t, err)
	assert.Equal(t, want.Signals, got.Signals)
	assert.Equal(t, want.Summary, got.Summary)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))

	_, err = repo.GetByRunID(ctx, "run_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
