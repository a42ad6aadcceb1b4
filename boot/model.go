// Package boot implements non-parametric bootstrap confidence intervals and
// p-values for fitted statistical models, including models with grouped
// structure.
//
// The engine is a generic harness: given a fitted Model, the data it was fit
// on, and a resample count, it repeatedly builds resampled datasets, refits
// the model on each, and summarizes the resulting coefficient distribution
// into intervals comparable to the model's parametric ones. Model fitting
// itself stays with the caller behind the Model interface.
package boot

import (
	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

// DefaultComponent labels the coefficient table of single-component models.
const DefaultComponent = "conditional"

// CoefficientRow is one model term: name, point estimate, standard error.
type CoefficientRow struct {
	Term     string
	Estimate float64
	SE       float64
}

// CoefficientTable is an ordered sequence of coefficient rows, one per model
// term (including the intercept). Row order matches the base model's term
// order and is significant for alignment across resamples.
type CoefficientTable []CoefficientRow

// CoefficientSet maps a component label (e.g. "conditional", "zero_inflated")
// to its coefficient table. Keys are stable across all resamples of one base
// model; single-table models use DefaultComponent.
type CoefficientSet map[string]CoefficientTable

// Summary is a fitted model's native coefficient output: either one table or
// several labeled component tables. Exactly one field is populated. A nil
// table inside Labeled marks a component absent for this model.
type Summary struct {
	Single  CoefficientTable
	Labeled map[string]CoefficientTable
}

// Model is the refit capability the engine drives. Implementations must be
// safe to share read-only across concurrent resample tasks; Refit must not
// mutate the receiver.
type Model interface {
	// Refit fits the same model specification to new data.
	Refit(data *frame.Frame) (Model, error)

	// CoefficientSummary returns the model's native coefficient output.
	CoefficientSummary() Summary

	// GroupingVars returns the grouping-variable names from the model's
	// formula, in formula order. Empty means no grouped structure.
	GroupingVars() []string
}

// DFProvider is optionally implemented by models that know their residual
// degrees of freedom. Without it the engine uses the normal distribution for
// parametric intervals.
type DFProvider interface {
	ResidualDF() float64
}

// DataProvider is optionally implemented by models that retain the data they
// were fit on, letting callers omit the data argument.
type DataProvider interface {
	Data() *frame.Frame
}

// Record is the outcome of one resample: a coefficient set on success, or a
// fit-failure marker carrying the cause.
type Record struct {
	Coefficients CoefficientSet
	Err          error
}

// Failed reports whether this resample produced no usable coefficients.
func (r Record) Failed() bool {
	return r.Err != nil
}

// Draws pairs a base model's coefficients with the records of one or more
// bootstrap runs over it. This is the raw form returned for distributed
// execution and later combined.
type Draws struct {
	Base    CoefficientSet
	Records []Record
}

// Successes counts the non-failed records.
func (d *Draws) Successes() int {
	n := 0
	for _, r := range d.Records {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// matchShape verifies that a resample's coefficient set has the same
// components, row counts and term order as the base set. Mismatches are a
// hard failure for that resample, never coerced.
func matchShape(base, got CoefficientSet) error {
	if len(got) != len(base) {
		return errors.NewShapeError("resample has %d components, base has %d", len(got), len(base))
	}
	for label, baseTable := range base {
		table, ok := got[label]
		if !ok {
			return errors.NewShapeError("resample is missing component %q", label)
		}
		if len(table) != len(baseTable) {
			return errors.NewShapeError("component %q has %d terms, base has %d", label, len(table), len(baseTable))
		}
		for i := range baseTable {
			if table[i].Term != baseTable[i].Term {
				return errors.NewShapeError("component %q term %d is %q, base has %q",
					label, i, table[i].Term, baseTable[i].Term)
			}
		}
	}
	return nil
}
