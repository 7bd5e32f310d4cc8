package jobs

import (
	"context"
	"time"

	"github.com/wonny/premarket-signals/pkg/logger"
)

// Pruner deletes stored runs older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRetentionJob removes old runs from the database
type RunRetentionJob struct {
	pruner    Pruner
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewRunRetentionJob creates a new retention job
func NewRunRetentionJob(pruner Pruner, retention time.Duration, log *logger.Logger) *RunRetentionJob {
	return &RunRetentionJob{
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		logger:    log,
	}
}

// Name returns the job name
func (j *RunRetentionJob) Name() string {
	return "run_retention"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *RunRetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the cleanup
func (j *RunRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	removed, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Old runs pruned")
	}
	return nil
}
