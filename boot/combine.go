package boot

import (
	"github.com/teranos/resample/errors"
)

// Combine merges independently produced bootstrap draws — for example from
// separate machines — into one collection. Inputs are *Draws values or
// one-level containers of them ([]*Draws); nesting deeper than one level is
// rejected. The result carries the first encountered base coefficient set
// and the concatenation of all record collections in input order. The CI
// engine treats the combined records as an unordered multiset, so the
// concatenation order has no statistical meaning.
//
// Combining draws from different base models is invalid: inputs whose base
// term sets or component labels differ fail with a configuration error.
func Combine(inputs ...any) (*Draws, error) {
	flat, err := flatten(inputs)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return nil, errors.NewConfigError("combine requires at least one draws collection")
	}

	base := flat[0].Base
	total := 0
	for _, d := range flat {
		if err := compatibleBases(base, d.Base); err != nil {
			return nil, err
		}
		total += len(d.Records)
	}

	records := make([]Record, 0, total)
	for _, d := range flat {
		records = append(records, d.Records...)
	}
	return &Draws{Base: base, Records: records}, nil
}

func flatten(inputs []any) ([]*Draws, error) {
	var flat []*Draws
	for _, in := range inputs {
		switch v := in.(type) {
		case *Draws:
			if v == nil {
				return nil, errors.NewConfigError("combine received a nil draws collection")
			}
			flat = append(flat, v)
		case []*Draws:
			for _, d := range v {
				if d == nil {
					return nil, errors.NewConfigError("combine received a nil draws collection")
				}
				flat = append(flat, d)
			}
		default:
			return nil, errors.NewConfigError("combine accepts *Draws or []*Draws, got %T", in)
		}
	}
	return flat, nil
}

// compatibleBases checks that two base coefficient sets describe the same
// model: same component labels, same terms in the same order.
func compatibleBases(a, b CoefficientSet) error {
	if len(a) != len(b) {
		return errors.NewConfigError("cannot combine draws from different base models: %d vs %d components", len(a), len(b))
	}
	for label, tableA := range a {
		tableB, ok := b[label]
		if !ok {
			return errors.NewConfigError("cannot combine draws from different base models: missing component %q", label)
		}
		if len(tableA) != len(tableB) {
			return errors.NewConfigError("cannot combine draws from different base models: component %q has %d vs %d terms",
				label, len(tableA), len(tableB))
		}
		for i := range tableA {
			if tableA[i].Term != tableB[i].Term {
				return errors.NewConfigError("cannot combine draws from different base models: component %q term %d is %q vs %q",
					label, i, tableA[i].Term, tableB[i].Term)
			}
		}
	}
	return nil
}
