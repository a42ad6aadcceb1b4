package boot

import (
	"context"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
	"github.com/teranos/resample/logger"
)

// Concurrency selects how resample refits are scheduled.
type Concurrency string

const (
	// ConcurrencyNone runs refits sequentially on the calling goroutine.
	ConcurrencyNone Concurrency = "none"
	// ConcurrencyPool runs refits on a fixed worker pool.
	ConcurrencyPool Concurrency = "pool"
	// ConcurrencyExternal submits refits to a caller-supplied Scheduler.
	ConcurrencyExternal Concurrency = "external"
)

// Options configures a bootstrap run.
type Options struct {
	// Resamples is the number of refits to perform. Required.
	Resamples int

	// Concurrency defaults to ConcurrencyNone.
	Concurrency Concurrency

	// Scheduler backs ConcurrencyExternal. Required for that mode.
	Scheduler Scheduler

	// Workers sizes the pool for ConcurrencyPool. Zero means available
	// cores minus one.
	Workers int

	// ResampleBlocks restricts block resampling to these grouping
	// variables instead of the entropy-based choice. Variables not among
	// the model's grouping variables are a configuration error.
	ResampleBlocks []string

	// UniqueMinimums requires a draw to cover at least this many distinct
	// levels of the named grouping variable, enforced by redrawing.
	UniqueMinimums map[string]int

	// NoNarrownessAvoid disables the n-1 draw-size correction, which is
	// on by default.
	NoNarrownessAvoid bool

	// Seed makes the run reproducible when non-nil.
	Seed *uint64

	// SuppressMessages silences informational output. Warnings remain.
	SuppressMessages bool

	// Alpha and Probs configure interval endpoints as in CIOptions.
	Alpha float64
	Probs *[2]float64

	// MinUsable overrides the usable-resample floor for quantiles.
	MinUsable int

	// Log defaults to the package-global logger.
	Log *zap.SugaredLogger
}

func (o Options) strategy() (Strategy, error) {
	switch o.Concurrency {
	case "", ConcurrencyNone:
		return Sequential{}, nil
	case ConcurrencyPool:
		return Pool{Workers: o.Workers}, nil
	case ConcurrencyExternal:
		if o.Scheduler == nil {
			return nil, errors.NewConfigError("external concurrency requires a scheduler")
		}
		return External{Scheduler: o.Scheduler}, nil
	default:
		return nil, errors.NewConfigError("unknown concurrency mode %q", o.Concurrency)
	}
}

// Bootstrap runs the full pipeline: choose the resampling unit, run the
// refits, and summarize into intervals and p-values.
func Bootstrap(ctx context.Context, model Model, data *frame.Frame, opts Options) (*Result, error) {
	draws, err := BootstrapDraws(ctx, model, data, opts)
	if err != nil {
		return nil, err
	}
	return ConfidenceIntervals(draws.Base, draws.Records, CIOptions{
		Alpha:     opts.Alpha,
		Probs:     opts.Probs,
		DF:        residualDF(model),
		MinUsable: opts.MinUsable,
	})
}

// BootstrapDraws runs the resampling passes and returns the raw base
// coefficients and per-resample records, for callers that distribute runs
// across machines and Combine the pieces before summarizing.
func BootstrapDraws(ctx context.Context, model Model, data *frame.Frame, opts Options) (*Draws, error) {
	if model == nil {
		return nil, errors.NewConfigError("model is required")
	}
	if opts.Resamples < 1 {
		return nil, errors.NewConfigError("resamples must be at least 1, got %d", opts.Resamples)
	}
	log := opts.Log
	if log == nil {
		log = logger.Logger
	}

	if data == nil {
		provider, ok := model.(DataProvider)
		if !ok || provider.Data() == nil {
			return nil, errors.Wrap(errors.ErrDataInference,
				"no data supplied and the model does not retain its data")
		}
		data = provider.Data()
	}

	ext, err := newExtractor(model)
	if err != nil {
		return nil, errors.Wrap(err, "extracting base coefficients")
	}

	vars, err := chooseResampleVars(model.GroupingVars(), data, opts.ResampleBlocks)
	if err != nil {
		return nil, err
	}
	if !opts.SuppressMessages {
		if len(vars) == 0 {
			log.Infow("case resampling over rows", "rows", data.NumRows())
		} else {
			log.Infow("block resampling over grouping variables", "variables", vars)
		}
	}

	cfg, err := newDrawConfig(data, vars, opts.UniqueMinimums, !opts.NoNarrownessAvoid)
	if err != nil {
		return nil, err
	}

	strategy, err := opts.strategy()
	if err != nil {
		return nil, err
	}

	runner := &Runner{
		Strategy:  strategy,
		Resamples: opts.Resamples,
		Seed:      opts.Seed,
		Suppress:  opts.SuppressMessages,
		Log:       log,
	}
	records := runner.Run(ctx, func(ctx context.Context, rng *rand.Rand) Record {
		return resampleOnce(cfg, rng, data, model, ext)
	})

	return &Draws{Base: ext.Base(), Records: records}, nil
}

// resampleOnce draws indices, refits, and extracts coefficients. Any error
// along the way becomes a fit-failure record for this resample only.
func resampleOnce(cfg *drawConfig, rng *rand.Rand, data *frame.Frame, model Model, ext *extractor) Record {
	indices, err := generateIndices(cfg, rng)
	if err != nil {
		return Record{Err: err}
	}
	sub, err := data.Select(indices)
	if err != nil {
		return Record{Err: errors.WrapFitFailure(err, "materializing resampled data")}
	}
	refit, err := model.Refit(sub)
	if err != nil {
		return Record{Err: errors.WrapFitFailure(err, "refitting model")}
	}
	set, err := ext.Extract(refit)
	if err != nil {
		return Record{Err: err}
	}
	return Record{Coefficients: set}
}

func residualDF(model Model) float64 {
	if p, ok := model.(DFProvider); ok {
		return p.ResidualDF()
	}
	return math.Inf(1)
}
