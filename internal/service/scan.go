package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/premarket-signals/internal/brain"
	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/marketdata"
	"github.com/wonny/premarket-signals/internal/selection"
	"github.com/wonny/premarket-signals/internal/store"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

var (
	// ErrScanInProgress is returned when a scan is requested while another is running
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrNotFound is returned when no run matches the lookup
	ErrNotFound = errors.New("run not found")
)

// recentRuns bounds the in-memory run history used when no repository is configured
const recentRuns = 20

// ScanService runs one premarket scan end to end:
// universe → snapshots → screener → engine → repository/publishers
// ⭐ SSOT: CLI, scheduler and API all trigger scans through here
type ScanService struct {
	universe   contracts.UniverseSource
	provider   contracts.SnapshotProvider
	screener   *selection.Screener
	engine     *brain.Engine
	repo       contracts.ResultRepository
	publishers []contracts.ResultPublisher

	risk       strategyconfig.RiskConfig
	configHash string

	scanMu sync.Mutex

	mu     sync.RWMutex
	recent []*contracts.Result // newest last

	logger *logger.Logger
}

// Option customizes a ScanService
type Option func(*ScanService)

// WithRepository persists every run
func WithRepository(repo contracts.ResultRepository) Option {
	return func(s *ScanService) {
		s.repo = repo
	}
}

// WithPublishers fans every run out to the given publishers
func WithPublishers(publishers ...contracts.ResultPublisher) Option {
	return func(s *ScanService) {
		s.publishers = append(s.publishers, publishers...)
	}
}

// NewScanService creates a new scan service for one risk configuration
func NewScanService(
	universe contracts.UniverseSource,
	provider contracts.SnapshotProvider,
	engine *brain.Engine,
	risk strategyconfig.RiskConfig,
	log *logger.Logger,
	opts ...Option,
) (*ScanService, error) {
	hash, err := strategyconfig.Hash(risk)
	if err != nil {
		return nil, fmt.Errorf("hash risk config: %w", err)
	}

	s := &ScanService{
		universe:   universe,
		provider:   provider,
		screener:   selection.NewScreener(log),
		engine:     engine,
		risk:       risk,
		configHash: hash,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scan runs one scan. An empty data set yields an empty run, not an error.
// Persistence and publish failures are logged and do not fail the scan.
func (s *ScanService) Scan(ctx context.Context) (*contracts.Result, error) {
	if !s.scanMu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.scanMu.Unlock()

	symbols, err := s.universe.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve universe: %w", err)
	}

	snapshots, err := s.provider.Fetch(ctx, symbols)
	switch {
	case errors.Is(err, marketdata.ErrNoData):
		s.logger.WithField("symbols", len(symbols)).Warn("No market data, producing empty run")
		snapshots = nil
	case err != nil:
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	screened := s.screener.Screen(snapshots, s.risk)

	result, err := s.engine.Run(ctx, screened, s.risk)
	if err != nil {
		return nil, err
	}

	s.remember(result)
	s.persist(ctx, result)
	s.publish(ctx, result)

	return result, nil
}

// Latest returns the most recent run
func (s *ScanService) Latest(ctx context.Context) (*contracts.Result, error) {
	s.mu.RLock()
	if n := len(s.recent); n > 0 {
		latest := s.recent[n-1]
		s.mu.RUnlock()
		return latest, nil
	}
	s.mu.RUnlock()

	if s.repo == nil {
		return nil, ErrNotFound
	}
	result, err := s.repo.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return result, err
}

// GetRun returns a run by id, from memory or the repository
func (s *ScanService) GetRun(ctx context.Context, runID string) (*contracts.Result, error) {
	s.mu.RLock()
	for i := len(s.recent) - 1; i >= 0; i-- {
		if s.recent[i].RunID == runID {
			result := s.recent[i]
			s.mu.RUnlock()
			return result, nil
		}
	}
	s.mu.RUnlock()

	if s.repo == nil {
		return nil, ErrNotFound
	}
	result, err := s.repo.GetByRunID(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return result, err
}

// RiskConfig returns the active risk configuration and its hash
func (s *ScanService) RiskConfig() (strategyconfig.RiskConfig, string) {
	return s.risk, s.configHash
}

func (s *ScanService) remember(result *contracts.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, result)
	if len(s.recent) > recentRuns {
		s.recent = s.recent[len(s.recent)-recentRuns:]
	}
}

func (s *ScanService) persist(ctx context.Context, result *contracts.Result) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, result, s.configHash); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"run_id": result.RunID,
			"error":  err.Error(),
		}).Error("Failed to save run")
	}
}

func (s *ScanService) publish(ctx context.Context, result *contracts.Result) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, result); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"run_id": result.RunID,
				"error":  err.Error(),
			}).Warn("Failed to publish run")
		}
	}
}
