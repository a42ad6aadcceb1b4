package boot

import (
	"sort"

	"github.com/teranos/resample/errors"
)

// extractor normalizes native coefficient summaries into CoefficientSets.
//
// The non-null component labels of the base model are memoized at
// construction; every resample must produce exactly that set of labels or
// its extraction fails with a shape error. Downstream code therefore never
// branches on summary shape again.
type extractor struct {
	labels []string
	base   CoefficientSet
}

// newExtractor extracts the base model's coefficients and fixes the
// component labels for the rest of the run.
func newExtractor(m Model) (*extractor, error) {
	set, err := normalize(m.CoefficientSummary(), nil)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return &extractor{labels: labels, base: set}, nil
}

// Base returns the base model's coefficient set.
func (e *extractor) Base() CoefficientSet {
	return e.base
}

// Extract normalizes a refitted model's summary and verifies it matches the
// base shape. A mismatch is a shape error for that resample only.
func (e *extractor) Extract(m Model) (CoefficientSet, error) {
	set, err := normalize(m.CoefficientSummary(), e.labels)
	if err != nil {
		return nil, err
	}
	if err := matchShape(e.base, set); err != nil {
		return nil, err
	}
	return set, nil
}

// normalize converts a Summary into a CoefficientSet. Single tables go under
// DefaultComponent; labeled summaries drop nil (absent) components. When
// wantLabels is non-nil the surviving labels must match it exactly.
func normalize(s Summary, wantLabels []string) (CoefficientSet, error) {
	switch {
	case s.Single != nil && s.Labeled != nil:
		return nil, errors.NewShapeError("summary has both a single table and labeled tables")
	case s.Single != nil:
		set := CoefficientSet{DefaultComponent: cloneTable(s.Single)}
		if wantLabels != nil {
			if len(wantLabels) != 1 || wantLabels[0] != DefaultComponent {
				return nil, errors.NewShapeError("resample produced a single table, base has components %v", wantLabels)
			}
		}
		return set, nil
	case s.Labeled != nil:
		set := make(CoefficientSet, len(s.Labeled))
		for label, table := range s.Labeled {
			if table == nil {
				continue
			}
			set[label] = cloneTable(table)
		}
		if len(set) == 0 {
			return nil, errors.NewShapeError("summary has no non-null components")
		}
		if wantLabels != nil {
			got := make([]string, 0, len(set))
			for label := range set {
				got = append(got, label)
			}
			sort.Strings(got)
			if !equalStrings(got, wantLabels) {
				return nil, errors.NewShapeError("resample has components %v, base has %v", got, wantLabels)
			}
		}
		return set, nil
	default:
		return nil, errors.NewShapeError("coefficient summary is neither a single table nor labeled tables")
	}
}

// cloneTable keeps only term, estimate and standard error. Copying here
// insulates the engine from callers reusing table backing arrays across
// refits.
func cloneTable(t CoefficientTable) CoefficientTable {
	out := make(CoefficientTable, len(t))
	for i, row := range t {
		out[i] = CoefficientRow{Term: row.Term, Estimate: row.Estimate, SE: row.SE}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
