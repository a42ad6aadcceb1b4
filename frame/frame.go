// Package frame provides the minimal tabular data structure the bootstrap
// engine resamples: named columns of equal length, row-indexable and
// row-count queryable.
//
// A Frame is immutable once built. Select returns a new Frame and never
// mutates the receiver, so one Frame can be shared read-only across
// concurrent resample tasks.
package frame

import (
	"strconv"

	"github.com/teranos/resample/errors"
)

// Column holds one named column of data. Exactly one of Floats or Labels
// is populated.
type Column struct {
	Floats []float64
	Labels []string
}

func (c Column) len() int {
	if c.Labels != nil {
		return len(c.Labels)
	}
	return len(c.Floats)
}

// IsNumeric reports whether the column holds float values.
func (c Column) IsNumeric() bool {
	return c.Labels == nil
}

// Frame is a table of named columns with equal row counts.
type Frame struct {
	names []string
	cols  map[string]Column
	rows  int
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{cols: make(map[string]Column)}
}

// AddFloats appends a numeric column. All columns must have equal length.
func (f *Frame) AddFloats(name string, values []float64) error {
	return f.add(name, Column{Floats: values})
}

// AddLabels appends a categorical column. All columns must have equal length.
func (f *Frame) AddLabels(name string, values []string) error {
	return f.add(name, Column{Labels: values})
}

func (f *Frame) add(name string, col Column) error {
	if _, exists := f.cols[name]; exists {
		return errors.Newf("column %q already exists", name)
	}
	if len(f.names) > 0 && col.len() != f.rows {
		return errors.Newf("column %q has %d rows, frame has %d", name, col.len(), f.rows)
	}
	f.rows = col.len()
	f.names = append(f.names, name)
	f.cols[name] = col
	return nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	return f.rows
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Floats returns a numeric column's values. The returned slice is shared;
// callers must not modify it.
func (f *Frame) Floats(name string) ([]float64, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, errors.Newf("no column %q", name)
	}
	if !col.IsNumeric() {
		return nil, errors.Newf("column %q is not numeric", name)
	}
	return col.Floats, nil
}

// Labels returns a column's values as strings. Numeric columns are
// formatted, so any column can serve as a grouping variable.
func (f *Frame) Labels(name string) ([]string, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, errors.Newf("no column %q", name)
	}
	if col.Labels != nil {
		return col.Labels, nil
	}
	out := make([]string, len(col.Floats))
	for i, v := range col.Floats {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out, nil
}

// Select builds a new frame containing the given rows in the given order.
// Indices may repeat; a repeated index duplicates the row, which is how
// bootstrap resamples are materialized.
func (f *Frame) Select(indices []int) (*Frame, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= f.rows {
			return nil, errors.Newf("row index %d out of range [0,%d)", idx, f.rows)
		}
	}
	out := New()
	for _, name := range f.names {
		col := f.cols[name]
		if col.IsNumeric() {
			vals := make([]float64, len(indices))
			for i, idx := range indices {
				vals[i] = col.Floats[idx]
			}
			out.cols[name] = Column{Floats: vals}
		} else {
			vals := make([]string, len(indices))
			for i, idx := range indices {
				vals[i] = col.Labels[idx]
			}
			out.cols[name] = Column{Labels: vals}
		}
		out.names = append(out.names, name)
	}
	out.rows = len(indices)
	return out, nil
}
