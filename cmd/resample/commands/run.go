// Package commands implements the resample CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"math"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teranos/resample/boot"
	"github.com/teranos/resample/internal/lm"
	"github.com/teranos/resample/logger"
)

// NewRunCmd builds the `run` subcommand. Flag values resolve through viper,
// so RESAMPLE_* environment variables can stand in for flags.
func NewRunCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RESAMPLE")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "run <data.csv>",
		Short: "Bootstrap a linear model fit to a CSV dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(args[0], v)
		},
	}

	flags := cmd.Flags()
	flags.String("formula", "", `model formula, e.g. "y ~ x1 + x2 | clinic"`)
	flags.Int("resamples", 1000, "number of bootstrap resamples")
	flags.String("concurrency", "none", "refit scheduling: none, pool, external")
	flags.Int("workers", 0, "pool size for --concurrency pool (0 = cores-1)")
	flags.Float64("alpha", 0.05, "two-sided significance level")
	flags.StringSlice("blocks", nil, "grouping variables to resample over (default: entropy-based choice)")
	flags.Bool("no-narrowness-avoid", false, "draw n instead of n-1 per resample")
	flags.Uint64("seed", 0, "RNG seed for reproducible runs (0 = random)")
	flags.Bool("quiet", false, "suppress informational messages")
	_ = cmd.MarkFlagRequired("formula")

	if err := v.BindPFlags(flags); err != nil {
		// Flag names are static; a bind failure is a programming error.
		panic(err)
	}
	return cmd
}

func runBootstrap(csvPath string, v *viper.Viper) error {
	data, err := loadCSV(csvPath)
	if err != nil {
		return err
	}

	spec, err := lm.ParseSpec(v.GetString("formula"))
	if err != nil {
		return err
	}
	model, err := lm.Fit(data, spec)
	if err != nil {
		return err
	}
	logger.Logger.Infow("model fitted",
		"rows", data.NumRows(),
		"predictors", spec.Predictors,
		"groups", spec.Groups,
	)

	opts := boot.Options{
		Resamples:         v.GetInt("resamples"),
		Workers:           v.GetInt("workers"),
		ResampleBlocks:    v.GetStringSlice("blocks"),
		NoNarrownessAvoid: v.GetBool("no-narrowness-avoid"),
		Alpha:             v.GetFloat64("alpha"),
		SuppressMessages:  v.GetBool("quiet"),
	}
	switch mode := v.GetString("concurrency"); mode {
	case "none":
		opts.Concurrency = boot.ConcurrencyNone
	case "pool":
		opts.Concurrency = boot.ConcurrencyPool
	case "external":
		opts.Concurrency = boot.ConcurrencyExternal
		opts.Scheduler = boot.NewGroupScheduler(v.GetInt("workers"))
	default:
		return fmt.Errorf("unknown concurrency mode %q", mode)
	}
	if seed := v.GetUint64("seed"); seed != 0 {
		opts.Seed = &seed
	}

	result, err := boot.Bootstrap(context.Background(), model, data, opts)
	if err != nil {
		return err
	}

	renderResult(result)
	return nil
}

func renderResult(result *boot.Result) {
	ciLabel := fmt.Sprintf("%g%% CI", 100*(result.Upper-result.Lower))
	table := pterm.TableData{
		{"Component", "Term", "Estimate", "SE", "Boot " + ciLabel, "Param " + ciLabel, "p"},
	}
	for _, term := range result.Terms {
		bootCI := fmt.Sprintf("[%.4g, %.4g]", term.BootLower, term.BootUpper)
		p := fmt.Sprintf("%.4g", term.PValue)
		if term.Err != nil {
			bootCI = "(under-powered)"
			p = "-"
		}
		table = append(table, []string{
			term.Component,
			term.Term,
			fmt.Sprintf("%.4g", term.Estimate),
			fmt.Sprintf("%.4g", term.SE),
			bootCI,
			fmt.Sprintf("[%.4g, %.4g]", term.ParamLower, term.ParamUpper),
			p,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		pterm.Error.Printf("rendering result table: %v\n", err)
		return
	}

	if result.Failures > 0 {
		pterm.Warning.Printf("%d of %d resamples failed and were excluded\n", result.Failures, result.Resamples)
	}
	if math.IsInf(result.DF, 1) {
		pterm.Printf("Parametric intervals use the normal distribution\n")
	} else {
		pterm.Printf("Parametric intervals use t with %.0f degrees of freedom\n", result.DF)
	}
	pterm.Success.Printf("%d resamples summarized\n", result.Resamples)
}
