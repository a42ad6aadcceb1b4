// Package lm provides a small ordinary-least-squares model implementing
// boot.Model. It exists so the CLI and the end-to-end tests have a concrete
// refit capability; the bootstrap engine itself never depends on it.
package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/teranos/resample/boot"
	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

// Spec describes a linear model: response ~ predictors, with optional
// grouping variables for block resampling.
type Spec struct {
	Response   string
	Predictors []string
	Groups     []string
}

// Model is a fitted least-squares model.
type Model struct {
	spec  Spec
	data  *frame.Frame
	coefs []float64
	ses   []float64
	df    float64
}

// Fit estimates the model by QR least squares. The design matrix is an
// intercept column followed by the predictors in spec order.
func Fit(data *frame.Frame, spec Spec) (*Model, error) {
	n := data.NumRows()
	p := len(spec.Predictors) + 1
	if n <= p {
		return nil, errors.Newf("need more than %d rows to fit %d coefficients, have %d", p, p, n)
	}

	y, err := data.Floats(spec.Response)
	if err != nil {
		return nil, errors.Wrap(err, "response")
	}

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, name := range spec.Predictors {
		col, err := data.Floats(name)
		if err != nil {
			return nil, errors.Wrapf(err, "predictor %q", name)
		}
		for i := 0; i < n; i++ {
			x.Set(i, j+1, col[i])
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, errors.Wrap(err, "solving least squares")
	}

	// Residual variance and coefficient standard errors from (X'X)^-1.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}
	df := float64(n - p)
	sigma2 := rss / df

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, errors.Wrap(err, "inverting X'X")
	}

	coefs := make([]float64, p)
	ses := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j)
		ses[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
	}

	return &Model{spec: spec, data: data, coefs: coefs, ses: ses, df: df}, nil
}

// Refit fits the same specification to new data.
func (m *Model) Refit(data *frame.Frame) (boot.Model, error) {
	return Fit(data, m.spec)
}

// CoefficientSummary returns a single coefficient table: intercept first,
// then predictors in specification order.
func (m *Model) CoefficientSummary() boot.Summary {
	table := make(boot.CoefficientTable, len(m.coefs))
	table[0] = boot.CoefficientRow{Term: "(Intercept)", Estimate: m.coefs[0], SE: m.ses[0]}
	for j, name := range m.spec.Predictors {
		table[j+1] = boot.CoefficientRow{Term: name, Estimate: m.coefs[j+1], SE: m.ses[j+1]}
	}
	return boot.Summary{Single: table}
}

// GroupingVars returns the grouping variables in specification order.
func (m *Model) GroupingVars() []string {
	return m.spec.Groups
}

// ResidualDF returns n - p.
func (m *Model) ResidualDF() float64 {
	return m.df
}

// Data returns the data the model was fit on.
func (m *Model) Data() *frame.Frame {
	return m.data
}

// Coefficients returns the fitted coefficients, intercept first.
func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coefs))
	copy(out, m.coefs)
	return out
}
