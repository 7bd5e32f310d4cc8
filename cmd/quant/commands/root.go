package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Premarket signals - gap and volume signal engine",
	Long: `Premarket Signals CLI

Scans a watchlist before the open, evaluates gap/volume strategies,
sizes positions against a risk budget and ranks the best setups.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant scan
  go run ./cmd/quant scan --preset conservative --json
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start
  go run ./cmd/quant config show`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
