package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/scheduler"
	"github.com/wonny/premarket-signals/internal/service"
	"github.com/wonny/premarket-signals/pkg/logger"
)

type fakeScanner struct {
	result *contracts.Result
	err    error
	calls  int
}

func (f *fakeScanner) Scan(context.Context) (*contracts.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakePruner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (f *fakePruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.removed, f.err
}

func TestPremarketScanJob(t *testing.T) {
	dir := t.TempDir()
	scanner := &fakeScanner{result: &contracts.Result{
		RunID:     "run_20260302_083000_abcd1234",
		Timestamp: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
	}}
	job := NewPremarketScanJob(scanner, "0 */15 4-9 * * 1-5", dir, logger.Nop())

	assert.Equal(t, "premarket_scan", job.Name())
	assert.Equal(t, "0 */15 4-9 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, scanner.calls)

	_, err := os.Stat(filepath.Join(dir, "signals_report_20260302_083000.json"))
	assert.NoError(t, err)
}

func TestPremarketScanJobErrors(t *testing.T) {
	busy := NewPremarketScanJob(&fakeScanner{err: service.ErrScanInProgress}, "@daily", "", logger.Nop())
	err := busy.Run(context.Background())
	assert.True(t, scheduler.IsPermanent(err))
	assert.ErrorIs(t, err, service.ErrScanInProgress)

	failing := NewPremarketScanJob(&fakeScanner{err: errors.New("yahoo down")}, "@daily", "", logger.Nop())
	err = failing.Run(context.Background())
	require.Error(t, err)
	assert.False(t, scheduler.IsPermanent(err))
}

func TestRunRetentionJob(t *testing.T) {
	pruner := &fakePruner{removed: 3}
	job := NewRunRetentionJob(pruner, 30*24*time.Hour, logger.Nop())
	now := time.Date(2026, 3, 31, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), pruner.cutoff)

	_, err := scheduler.NextRun(job.Schedule(), now)
	assert.NoError(t, err)

	pruner.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))
}
