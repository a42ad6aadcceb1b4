package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/resample/cmd/resample/commands"
	"github.com/teranos/resample/logger"
)

var (
	verbosity int
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "resample",
	Short: "Non-parametric bootstrap intervals for fitted models",
	Long: `resample - non-parametric bootstrap confidence intervals and p-values.

Refits a model on many resampled datasets, at the row level or at the level
of a grouping variable, and summarizes the resulting coefficient
distribution into percentile intervals comparable to the model's own
parametric ones.

Examples:
  resample run data.csv --formula "weight ~ dose | clinic"
  resample run data.csv --formula "y ~ x" --resamples 2000 --concurrency pool`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logger.VerbosityToLevel(verbosity)
		if err := logger.InitializeWithLevel(jsonLogs, level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON log output")

	rootCmd.AddCommand(commands.NewRunCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
