package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/premarket-signals/internal/contracts"
)

// FileName returns the report file name for a run, e.g. signals_report_20260302_083000.json
func FileName(result *contracts.Result) string {
	return fmt.Sprintf("signals_report_%s.json", result.Timestamp.Format("20060102_150405"))
}

// WriteJSON writes the run as indented JSON into dir and returns the file path
func WriteJSON(dir string, result *contracts.Result) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, FileName(result))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
