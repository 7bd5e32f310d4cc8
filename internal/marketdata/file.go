package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
)

const sourceFile = "file"

// FileProvider loads snapshots from a JSON file (offline runs, replays, fixtures)
type FileProvider struct {
	path   string
	logger *logger.Logger
}

// NewFileProvider creates a file-backed provider
func NewFileProvider(path string, log *logger.Logger) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: log,
	}
}

// fileSnapshot allows gap_percent to be omitted; it is derived when missing
type fileSnapshot struct {
	contracts.MarketSnapshot
	GapPercent *float64 `json:"gap_percent"`
}

// Fetch returns the file's snapshots, restricted to symbols when non-empty.
// File order is preserved.
func (p *FileProvider) Fetch(ctx context.Context, symbols []string) ([]contracts.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots, err := LoadSnapshots(p.path)
	if err != nil {
		metrics.MarketDataRequests.WithLabelValues(sourceFile, "error").Inc()
		return nil, err
	}
	metrics.MarketDataRequests.WithLabelValues(sourceFile, "ok").Inc()

	if len(symbols) > 0 {
		wanted := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			wanted[strings.ToUpper(s)] = true
		}
		filtered := snapshots[:0]
		for _, s := range snapshots {
			if wanted[s.Symbol] {
				filtered = append(filtered, s)
			}
		}
		snapshots = filtered
	}

	p.logger.WithFields(map[string]interface{}{
		"path":  p.path,
		"count": len(snapshots),
	}).Info("Loaded snapshots from file")

	if len(snapshots) == 0 {
		return nil, ErrNoData
	}
	return snapshots, nil
}

// LoadSnapshots reads a JSON array of snapshots
func LoadSnapshots(path string) ([]contracts.MarketSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	var raw []fileSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshots %s: %w", path, err)
	}

	out := make([]contracts.MarketSnapshot, 0, len(raw))
	for _, r := range raw {
		s := r.MarketSnapshot
		s.Symbol = strings.ToUpper(s.Symbol)
		if r.GapPercent != nil {
			s.GapPercent = *r.GapPercent
		} else {
			s.GapPercent = contracts.ComputeGapPercent(s.CurrentPrice, s.PreviousClose)
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = time.Now()
		}
		out = append(out, s)
	}
	return out, nil
}
