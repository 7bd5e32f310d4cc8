package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/premarket-signals/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var (
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the resolved risk configuration",
		Long: `Prints the risk configuration a scan would use, its hash and any warnings.

Example:
  go run ./cmd/quant config show
  go run ./cmd/quant config show --preset conservative
  go run ./cmd/quant config show --strategy config/strategy/premarket_default.yaml`,
		RunE: showConfig,
	}

	configRisk riskFlags
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringVar(&configRisk.preset, "preset", "default", "risk preset (default|conservative|aggressive)")
	configShowCmd.Flags().StringVar(&configRisk.strategyFile, "strategy", "", "strategy YAML file (overrides --preset)")
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	riskCfg, err := resolveRisk(cfg, configRisk)
	if err != nil {
		return err
	}

	hash, err := strategyconfig.Hash(riskCfg)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(map[string]interface{}{"risk": riskCfg})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	PrintSection(w, "Risk configuration")
	fmt.Fprint(w, string(out))
	PrintSection(w, "Engine")
	fmt.Fprintf(w, "  account_value        : %.2f\n", cfg.Engine.AccountValue)
	fmt.Fprintf(w, "  universe_source      : %s\n", cfg.Engine.UniverseSource)
	fmt.Fprintf(w, "  max_stocks_to_analyze: %d\n", cfg.Engine.MaxStocksToAnalyze)
	fmt.Fprintf(w, "  scan_schedule        : %s\n", cfg.ScanSchedule)
	PrintSection(w, "Hash")
	fmt.Fprintf(w, "  %s\n", hash)

	if warnings := strategyconfig.Warn(riskCfg); len(warnings) > 0 {
		PrintSection(w, "Warnings")
		for _, warn := range warnings {
			fmt.Fprintf(w, "  ⚠ [%s] %s\n", warn.Code, warn.Message)
		}
	}

	return nil
}
