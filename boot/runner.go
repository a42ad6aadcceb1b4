package boot

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/resample/logger"
)

const (
	// MaxRetryRounds bounds how many times the runner re-draws failed
	// resamples before returning them as failures.
	MaxRetryRounds = 10

	// failureWarnFraction is the share of failed resamples in the initial
	// pass above which a warning is emitted.
	failureWarnFraction = 0.25
)

// ResampleFunc performs one refit-and-extract. All randomness must come from
// rng; the function must be safe for concurrent calls.
type ResampleFunc func(ctx context.Context, rng *rand.Rand) Record

// Runner drives N independent resamples under a pluggable concurrency
// strategy, with bounded retry of failures. The returned collection always
// has exactly Resamples entries; unresolved failures are returned as
// FitFailure records, never dropped. Record order carries no meaning.
type Runner struct {
	// Strategy schedules the resample tasks. Nil means Sequential.
	Strategy Strategy

	// Resamples is the number of records to produce.
	Resamples int

	// Seed, when non-nil, makes the run reproducible: resample i of the
	// initial pass and every retry draw get deterministic RNG streams
	// derived from it, regardless of strategy.
	Seed *uint64

	// Suppress silences informational messages. Warnings are still logged.
	Suppress bool

	// Log defaults to the package-global logger.
	Log *zap.SugaredLogger
}

// Run executes once Resamples times plus retries. Retries reuse the run's
// strategy and replace failed records by position; the splice is a pure
// transformation, the initial collection is never mutated in place by the
// tasks of a later round.
func (r *Runner) Run(ctx context.Context, once ResampleFunc) []Record {
	log := r.Log
	if log == nil {
		log = logger.Logger
	}
	strategy := r.Strategy
	if strategy == nil {
		strategy = Sequential{}
	}
	n := r.Resamples

	var baseSeed uint64
	if r.Seed != nil {
		baseSeed = *r.Seed
	} else {
		baseSeed = rand.Uint64()
	}
	runID := uuid.NewString()

	if !r.Suppress {
		log.Infow("bootstrap run starting",
			"run_id", runID,
			"resamples", n,
			"strategy", strategy.Name(),
			"seeded", r.Seed != nil,
		)
	}

	records := runPass(ctx, strategy, n, baseSeed, 0, once)

	failed := failedSlots(records)
	if frac := float64(len(failed)) / float64(n); frac > failureWarnFraction {
		log.Warnw("high resample failure rate",
			"run_id", runID,
			"failed", len(failed),
			"resamples", n,
		)
	}

	nextStream := uint64(n)
	for round := 1; round <= MaxRetryRounds && len(failed) > 0; round++ {
		if !r.Suppress {
			log.Debugw("retrying failed resamples",
				"run_id", runID,
				"round", round,
				"failed", len(failed),
			)
		}
		fresh := runPass(ctx, strategy, len(failed), baseSeed, nextStream, once)
		nextStream += uint64(len(failed))
		records = splice(records, failed, fresh)
		failed = failedSlots(records)
	}

	if len(failed) > 0 {
		log.Warnw("returning unresolved resample failures",
			"run_id", runID,
			"unresolved", len(failed),
			"resamples", n,
			"retry_rounds", MaxRetryRounds,
		)
	}
	return records
}

// runPass schedules count tasks under the strategy. Task i draws from RNG
// stream streamBase+i, so results are seed-deterministic for any strategy.
func runPass(ctx context.Context, strategy Strategy, count int, baseSeed, streamBase uint64, once ResampleFunc) []Record {
	records := make([]Record, count)
	strategy.Run(ctx, count, func(ctx context.Context, slot int) {
		rng := rand.New(rand.NewPCG(baseSeed, streamBase+uint64(slot)))
		records[slot] = once(ctx, rng)
	})
	return records
}

func failedSlots(records []Record) []int {
	var slots []int
	for i, rec := range records {
		if rec.Failed() {
			slots = append(slots, i)
		}
	}
	return slots
}

// splice returns a copy of records with fresh[i] placed at slots[i].
func splice(records []Record, slots []int, fresh []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	for i, slot := range slots {
		out[slot] = fresh[i]
	}
	return out
}
