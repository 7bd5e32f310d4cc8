package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/premarket-signals/internal/contracts"
)

// ErrNotFound is returned when no stored run matches
var ErrNotFound = errors.New("run not found")

// RunRepository implements contracts.ResultRepository on PostgreSQL
// ⭐ SSOT: signals.runs / signals.run_signals are written and read here only
type RunRepository struct {
	pool *pgxpool.Pool
}

var _ contracts.ResultRepository = (*RunRepository)(nil)

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Save stores a run and its ranked signals in one transaction.
// Saving the same run_id again replaces it.
func (r *RunRepository) Save(ctx context.Context, result *contracts.Result, configHash string) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO signals.runs (
			run_id, run_at, duration_seconds, config_hash,
			stocks_analyzed, signals_generated, reason,
			summary, config
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			run_at = EXCLUDED.run_at,
			duration_seconds = EXCLUDED.duration_seconds,
			config_hash = EXCLUDED.config_hash,
			stocks_analyzed = EXCLUDED.stocks_analyzed,
			signals_generated = EXCLUDED.signals_generated,
			reason = EXCLUDED.reason,
			summary = EXCLUDED.summary,
			config = EXCLUDED.config
	`

	_, err = tx.Exec(ctx, runQuery,
		result.RunID, result.Timestamp, result.DurationSeconds, configHash,
		result.Summary.TotalStocksAnalyzed, result.Summary.SignalsGenerated, result.Summary.Reason,
		summaryJSON, configJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM signals.run_signals WHERE run_id = $1", result.RunID); err != nil {
		return fmt.Errorf("failed to delete old signals: %w", err)
	}

	signalQuery := `
		INSERT INTO signals.run_signals (
			run_id, rank, symbol, strategy, direction,
			confidence, entry_price, stop_loss, take_profit, risk_reward_ratio,
			shares, record
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for i, rec := range result.Signals {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal signal %s: %w", rec.Symbol, err)
		}

		_, err = tx.Exec(ctx, signalQuery,
			result.RunID, i+1, rec.Symbol, rec.Strategy, string(rec.Direction),
			rec.Confidence, rec.EntryPrice, rec.StopLoss, rec.TakeProfit, rec.RewardRiskRatio,
			rec.PositionSizing.Shares, recordJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert signal %s: %w", rec.Symbol, err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Latest returns the most recent run
func (r *RunRepository) Latest(ctx context.Context) (*contracts.Result, error) {
	query := `
		SELECT run_id
		FROM signals.runs
		ORDER BY run_at DESC, created_at DESC
		LIMIT 1
	`

	var runID string
	if err := r.pool.QueryRow(ctx, query).Scan(&runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return r.GetByRunID(ctx, runID)
}

// GetByRunID loads one run with its signals in rank order
func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*contracts.Result, error) {
	query := `
		SELECT run_id, run_at, duration_seconds, summary, config
		FROM signals.runs
		WHERE run_id = $1
	`

	var row runRow
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&row.RunID,
		&row.RunAt,
		&row.DurationSeconds,
		&row.Summary,
		&row.Config,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT record
		FROM signals.run_signals
		WHERE run_id = $1
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		row.Records = append(row.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return row.toResult()
}

// runRow is a stored run before its JSON columns are decoded
type runRow struct {
	RunID           string
	RunAt           time.Time
	DurationSeconds float64
	Summary         []byte
	Config          []byte
	Records         [][]byte
}

func (row runRow) toResult() (*contracts.Result, error) {
	result := &contracts.Result{
		RunID:           row.RunID,
		Timestamp:       row.RunAt,
		DurationSeconds: row.DurationSeconds,
		Signals:         make([]contracts.SignalRecord, 0, len(row.Records)),
	}

	if err := json.Unmarshal(row.Summary, &result.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if err := json.Unmarshal(row.Config, &result.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for _, raw := range row.Records {
		var rec contracts.SignalRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode signal: %w", err)
		}
		result.Signals = append(result.Signals, rec)
	}

	return result, nil
}

// Prune deletes runs older than cutoff; their signals cascade
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM signals.runs WHERE run_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
