package boot

import (
	"math"

	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

// chooseResampleVars decides which grouping variable(s) to resample over.
//
// With no grouping variables the run falls back to case (row-level)
// resampling. A caller-requested subset is intersected with the model's
// grouping variables and used directly, accepting the conservativeness of
// multi-block resampling. Otherwise the variable whose empirical level
// distribution has maximum Shannon entropy wins; ties resolve to the
// variable appearing first in formula order.
func chooseResampleVars(spec []string, data *frame.Frame, requested []string) ([]string, error) {
	if len(spec) == 0 {
		return nil, nil
	}
	if len(requested) > 0 {
		var kept []string
		for _, name := range spec {
			for _, want := range requested {
				if name == want {
					kept = append(kept, name)
					break
				}
			}
		}
		if len(kept) == 0 {
			return nil, errors.NewConfigError(
				"requested resample blocks %v are not among the model's grouping variables %v",
				requested, spec)
		}
		return kept, nil
	}
	if len(spec) == 1 {
		return spec[:1], nil
	}

	best := 0
	bestH := math.Inf(-1)
	for i, name := range spec {
		labels, err := data.Labels(name)
		if err != nil {
			return nil, errors.Wrapf(err, "grouping variable %q", name)
		}
		// Strictly greater keeps the first variable on ties.
		if h := shannonEntropy(labels); h > bestH {
			best, bestH = i, h
		}
	}
	return spec[best : best+1], nil
}

// shannonEntropy computes the entropy of the empirical distribution of
// values, in nats, over the raw column.
func shannonEntropy(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	n := float64(len(values))
	h := 0.0
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log(p)
	}
	return h
}
