package brain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/risk"
	"github.com/wonny/premarket-signals/internal/selection"
	"github.com/wonny/premarket-signals/internal/signals"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
)

// Engine runs the signal pipeline over one snapshot collection
// Evaluate → Select → Size (per instrument) → Rank (across instruments)
// ⭐ SSOT: pipeline coordination is done here only
type Engine struct {
	registry *signals.Registry
	selector *selection.Selector
	sizer    *risk.Sizer
	ranker   *selection.Ranker

	sizing  risk.SizingContext
	workers int

	now    func() time.Time
	logger *logger.Logger
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithWorkers bounds per-instrument concurrency; n <= 0 means one per CPU
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine sized against the given account
func NewEngine(sizing risk.SizingContext, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: signals.NewRegistry(log),
		selector: selection.NewSelector(),
		sizer:    risk.NewSizer(),
		ranker:   selection.NewRanker(selection.DefaultTopN, log),
		sizing:   sizing,
		workers:  runtime.NumCPU(),
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every snapshot and returns the ranked result.
// Instruments are processed concurrently; each writes to the slot of its
// universe position, so output never depends on completion order.
// A cancelled run returns ctx.Err() and no result.
func (e *Engine) Run(ctx context.Context, snapshots []contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) (*contracts.Result, error) {
	start := e.now()
	runID := NewRunID(start, snapshots, cfg)

	if err := ctx.Err(); err != nil {
		metrics.EngineRuns.WithLabelValues(metrics.OutcomeCancelled).Inc()
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":      runID,
		"stock_count": len(snapshots),
		"workers":     e.workers,
	}).Info("Starting engine run")

	slots := make([]*contracts.Pick, len(snapshots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range snapshots {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.evaluate(snapshots[i], cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil || ctx.Err() != nil {
		metrics.EngineRuns.WithLabelValues(metrics.OutcomeCancelled).Inc()
		e.logger.WithFields(map[string]interface{}{
			"run_id": runID,
		}).Warn("Engine run cancelled")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("engine run: %w", err)
	}

	picks := make([]contracts.Pick, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			picks = append(picks, *p)
		}
	}

	ranked, summary := e.ranker.Rank(picks, len(snapshots), cfg)

	finished := e.now()
	result := BuildResult(runID, finished, finished.Sub(start), ranked, summary, cfg)

	e.record(result, finished.Sub(start))

	e.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"analyzed": summary.TotalStocksAnalyzed,
		"picks":    len(picks),
		"signals":  summary.SignalsGenerated,
		"duration": finished.Sub(start).String(),
	}).Info("Engine run completed")

	return result, nil
}

// evaluate runs one instrument through evaluate → select → size
func (e *Engine) evaluate(snap contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) *contracts.Pick {
	candidates := e.registry.Evaluate(snap, cfg)
	if len(candidates) == 0 {
		return nil
	}

	selected, ok := e.selector.Select(candidates, cfg)
	if !ok {
		return nil
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":     snap.Symbol,
		"strategy":   selected.Strategy,
		"confidence": selected.Confidence,
		"candidates": len(candidates),
	}).Debug("Selected signal")

	return &contracts.Pick{
		Snapshot: snap,
		Signal:   selected,
		Position: e.sizer.Size(selected.CandidateSignal, cfg, e.sizing),
	}
}

func (e *Engine) record(result *contracts.Result, elapsed time.Duration) {
	metrics.EngineRunDuration.Observe(elapsed.Seconds())
	if result.IsEmpty() {
		metrics.EngineRuns.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return
	}
	metrics.EngineRuns.WithLabelValues(metrics.OutcomeOK).Inc()
	for _, s := range result.Signals {
		metrics.PublishedTotal.WithLabelValues(string(s.Direction)).Inc()
	}
}

// runNamespace scopes the name-based run UUIDs
var runNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("premarket-signals/run"))

// NewRunID generates a run identifier: run_YYYYMMDD_HHMMSS_<8 hex>.
// The suffix is a name-based UUID over the start time and the run inputs,
// so the same inputs started at the same instant get the same id.
func NewRunID(t time.Time, snapshots []contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) string {
	id := uuid.NewSHA1(runNamespace, runFingerprint(t, snapshots, cfg))
	short := strings.SplitN(id.String(), "-", 2)[0]
	return fmt.Sprintf("run_%s_%s", t.Format("20060102_150405"), short)
}

func runFingerprint(t time.Time, snapshots []contracts.MarketSnapshot, cfg strategyconfig.RiskConfig) []byte {
	var b bytes.Buffer
	// %v prints map keys sorted
	fmt.Fprintf(&b, "%s|%v\n", t.Format(time.RFC3339Nano), cfg)
	for _, s := range snapshots {
		pm := "-"
		if s.PremarketPrice != nil {
			pm = strconv.FormatFloat(*s.PremarketPrice, 'g', -1, 64)
		}
		fmt.Fprintf(&b, "%s|%v|%v|%s|%d|%d|%v|%v|%v|%s\n",
			s.Symbol, s.CurrentPrice, s.PreviousClose, pm, s.PremarketVolume, s.RegularVolume,
			s.AverageVolume, s.GapPercent, s.MarketCap, s.Timestamp.Format(time.RFC3339Nano))
	}
	return b.Bytes()
}

// IsCancelled reports whether err came from a cancelled or expired context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
