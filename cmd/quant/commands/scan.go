package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/premarket-signals/internal/report"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one premarket scan",
	Long: `Runs one premarket scan and prints the report.

This command:
- resolves the universe (watchlist or most active)
- fetches premarket snapshots (Yahoo Finance, or --snapshots file)
- evaluates, sizes and ranks signals
- prints the text report (or JSON with --json)
- writes signals_report_YYYYMMDD_HHMMSS.json into --output

Example:
  go run ./cmd/quant scan
  go run ./cmd/quant scan --preset aggressive
  go run ./cmd/quant scan --snapshots testdata/snapshots.json --json
  go run ./cmd/quant scan --strategy config/strategy/premarket_default.yaml --output reports`,
	RunE: runScan,
}

var (
	scanRisk      riskFlags
	scanSnapshots string
	scanOutput    string
	scanJSON      bool
	scanPersist   bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanRisk.preset, "preset", "default", "risk preset (default|conservative|aggressive)")
	scanCmd.Flags().StringVar(&scanRisk.strategyFile, "strategy", "", "strategy YAML file (overrides --preset)")
	scanCmd.Flags().StringVar(&scanSnapshots, "snapshots", "", "read snapshots from a JSON file instead of Yahoo")
	scanCmd.Flags().StringVar(&scanOutput, "output", "", "directory for the JSON report (default OUTPUT_DIR, \"-\" disables)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the result as JSON instead of the text report")
	scanCmd.Flags().BoolVar(&scanPersist, "persist", true, "save the run when DATABASE_URL/REDIS_ENABLED are set")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries the report; logs go to stderr
	log := newLogger(cfg, os.Stderr)

	riskCfg, err := resolveRisk(cfg, scanRisk)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, appOptions{
		risk:          riskCfg,
		snapshotsFile: scanSnapshots,
		persist:       scanPersist,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, report.FormatText(result))
	}

	dir := scanOutput
	if dir == "" {
		dir = cfg.Engine.OutputDir
	}
	if dir != "-" {
		path, err := report.WriteJSON(dir, result)
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("Report saved")
	}

	return nil
}
