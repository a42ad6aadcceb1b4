package boot

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/teranos/resample/errors"
)

// DefaultMinUsable is the minimum count of successful resamples required
// before an empirical quantile is considered meaningful for a term.
const DefaultMinUsable = 10

// CIOptions configures interval computation.
type CIOptions struct {
	// Alpha is the two-sided significance level; 0 means 0.05. Ignored
	// when Probs is set.
	Alpha float64

	// Probs gives explicit probability endpoints, e.g. {0.025, 0.975}.
	Probs *[2]float64

	// DF is the base model's residual degrees of freedom. Non-positive or
	// +Inf means unknown: the normal distribution is used for parametric
	// critical values.
	DF float64

	// MinUsable overrides DefaultMinUsable when positive.
	MinUsable int
}

func (o CIOptions) endpoints() (lower, upper float64, err error) {
	if o.Probs != nil {
		lower, upper = o.Probs[0], o.Probs[1]
		if lower <= 0 || upper >= 1 || lower >= upper {
			return 0, 0, errors.NewConfigError("probability endpoints (%g, %g) must satisfy 0 < lower < upper < 1", lower, upper)
		}
		return lower, upper, nil
	}
	alpha := o.Alpha
	if alpha == 0 {
		alpha = 0.05
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, 0, errors.NewConfigError("alpha %g must be in (0, 1)", alpha)
	}
	return alpha / 2, 1 - alpha/2, nil
}

// TermResult summarizes one model term of one component.
type TermResult struct {
	Component string
	Term      string

	// Base model quantities.
	Estimate float64
	SE       float64

	// Parametric interval: estimate ± critical value × SE.
	ParamLower float64
	ParamUpper float64

	// Percentile bootstrap interval over the successful resampled
	// estimates. NaN when the term is under-powered.
	BootLower float64
	BootUpper float64

	// PValue is the two-sided bootstrap p-value: the share of resampled
	// estimates on the opposite side of zero from the base estimate,
	// doubled and capped at 1. NaN when under-powered.
	PValue float64

	// Used counts the successful resamples behind the bootstrap columns.
	Used int

	// Err is non-nil when too few successful resamples remained for this
	// term's quantiles. The rest of the result is still returned.
	Err error
}

// Result is a full bootstrap summary.
type Result struct {
	Terms []TermResult

	// Resamples is the total record count, Failures how many of them
	// carried no coefficients.
	Resamples int
	Failures  int

	// Lower and Upper are the probability endpoints used.
	Lower float64
	Upper float64

	// DF is the degrees of freedom used for parametric intervals; +Inf
	// means the normal distribution was used.
	DF float64
}

// UnderPowered returns the terms whose bootstrap columns could not be
// computed.
func (r *Result) UnderPowered() []TermResult {
	var out []TermResult
	for _, t := range r.Terms {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// ConfidenceIntervals converts base coefficients plus a resample collection
// into intervals and p-values. Failed records contribute nothing to any
// term's quantiles; computation is per-term independent. The records are
// treated as an unordered multiset — combined collections from Combine are
// handled identically to single-run ones.
func ConfidenceIntervals(base CoefficientSet, records []Record, opts CIOptions) (*Result, error) {
	if len(base) == 0 {
		return nil, errors.NewConfigError("base coefficient set is empty")
	}
	lower, upper, err := opts.endpoints()
	if err != nil {
		return nil, err
	}
	minUsable := opts.MinUsable
	if minUsable <= 0 {
		minUsable = DefaultMinUsable
	}

	successes := 0
	for _, rec := range records {
		if !rec.Failed() {
			successes++
		}
	}
	if successes == 0 {
		return nil, errors.NewConfigError("no successful resamples out of %d records", len(records))
	}

	df := opts.DF
	if df <= 0 {
		df = math.Inf(1)
	}
	crit := criticalValue(upper, df)

	result := &Result{
		Resamples: len(records),
		Failures:  len(records) - successes,
		Lower:     lower,
		Upper:     upper,
		DF:        df,
	}

	for _, label := range sortedLabels(base) {
		table := base[label]
		for rowIdx, row := range table {
			tr := TermResult{
				Component:  label,
				Term:       row.Term,
				Estimate:   row.Estimate,
				SE:         row.SE,
				ParamLower: row.Estimate - crit*row.SE,
				ParamUpper: row.Estimate + crit*row.SE,
			}

			draws := termDraws(records, label, rowIdx)
			tr.Used = len(draws)
			if len(draws) < minUsable {
				tr.BootLower = math.NaN()
				tr.BootUpper = math.NaN()
				tr.PValue = math.NaN()
				tr.Err = errors.Wrapf(errors.ErrUnderPowered,
					"term %q in component %q has %d usable resamples, need %d",
					row.Term, label, len(draws), minUsable)
			} else {
				sort.Float64s(draws)
				tr.BootLower = stat.Quantile(lower, stat.LinInterp, draws, nil)
				tr.BootUpper = stat.Quantile(upper, stat.LinInterp, draws, nil)
				tr.PValue = mirroredTailPValue(row.Estimate, draws)
			}
			result.Terms = append(result.Terms, tr)
		}
	}
	return result, nil
}

// termDraws collects one term's estimates across the successful records.
func termDraws(records []Record, label string, rowIdx int) []float64 {
	var draws []float64
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		table, ok := rec.Coefficients[label]
		if !ok || rowIdx >= len(table) {
			continue
		}
		draws = append(draws, table[rowIdx].Estimate)
	}
	return draws
}

// mirroredTailPValue doubles the share of the bootstrap distribution lying
// on the opposite side of zero from the base estimate, capped at 1. A base
// estimate of zero counts the smaller tail, so a symmetric distribution
// yields p = 1.
func mirroredTailPValue(estimate float64, draws []float64) float64 {
	n := float64(len(draws))
	atMost := 0
	atLeast := 0
	for _, d := range draws {
		if d <= 0 {
			atMost++
		}
		if d >= 0 {
			atLeast++
		}
	}

	var opposite float64
	switch {
	case estimate > 0:
		opposite = float64(atMost) / n
	case estimate < 0:
		opposite = float64(atLeast) / n
	default:
		opposite = math.Min(float64(atMost), float64(atLeast)) / n
	}
	return math.Min(1, 2*opposite)
}

// criticalValue is the upper-tail quantile of the t-distribution with df
// degrees of freedom, or of the normal distribution when df is infinite.
func criticalValue(p, df float64) float64 {
	if math.IsInf(df, 1) {
		return distuv.UnitNormal.Quantile(p)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t.Quantile(p)
}

func sortedLabels(set CoefficientSet) []string {
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
