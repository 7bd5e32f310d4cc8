package jobs

import (
	"context"
	"errors"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/report"
	"github.com/wonny/premarket-signals/internal/scheduler"
	"github.com/wonny/premarket-signals/internal/service"
	"github.com/wonny/premarket-signals/pkg/logger"
)

// Scanner runs one premarket scan
type Scanner interface {
	Scan(ctx context.Context) (*contracts.Result, error)
}

// PremarketScanJob runs a scan on the premarket schedule
type PremarketScanJob struct {
	scanner   Scanner
	schedule  string
	outputDir string // optional JSON report directory
	logger    *logger.Logger
}

// NewPremarketScanJob creates a new premarket scan job
func NewPremarketScanJob(scanner Scanner, schedule, outputDir string, log *logger.Logger) *PremarketScanJob {
	return &PremarketScanJob{
		scanner:   scanner,
		schedule:  schedule,
		outputDir: outputDir,
		logger:    log,
	}
}

// Name returns the job name
func (j *PremarketScanJob) Name() string {
	return "premarket_scan"
}

// Schedule returns the cron schedule
func (j *PremarketScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan
func (j *PremarketScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled premarket scan")

	result, err := j.scanner.Scan(ctx)
	if errors.Is(err, service.ErrScanInProgress) {
		return scheduler.Permanent(err)
	}
	if err != nil {
		return err
	}

	if j.outputDir != "" {
		path, err := report.WriteJSON(j.outputDir, result)
		if err != nil {
			j.logger.WithError(err).Warn("Failed to write scan report")
		} else {
			j.logger.WithField("path", path).Debug("Scan report written")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"analyzed": result.Summary.TotalStocksAnalyzed,
		"signals":  result.Summary.SignalsGenerated,
		"buy":      result.Summary.BuySignals,
		"sell":     result.Summary.SellSignals,
	}).Info("Premarket scan completed")

	return nil
}
