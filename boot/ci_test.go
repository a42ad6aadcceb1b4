package boot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rserrors "github.com/teranos/resample/errors"
)

func recordsFromEstimates(estimates []float64) []Record {
	records := make([]Record, len(estimates))
	for i, e := range estimates {
		records[i] = Record{Coefficients: CoefficientSet{
			DefaultComponent: {{Term: "x", Estimate: e, SE: 0.1}},
		}}
	}
	return records
}

func baseWithEstimate(estimate float64) CoefficientSet {
	return CoefficientSet{
		DefaultComponent: {{Term: "x", Estimate: estimate, SE: 0.5}},
	}
}

func TestPValueSymmetricAboutZeroIsOne(t *testing.T) {
	estimates := make([]float64, 0, 40)
	for i := 1; i <= 20; i++ {
		estimates = append(estimates, float64(i), -float64(i))
	}

	result, err := ConfidenceIntervals(baseWithEstimate(0), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)
	require.Len(t, result.Terms, 1)
	assert.InDelta(t, 1.0, result.Terms[0].PValue, 1e-9)
}

func TestPValueAllPositiveDrawsApproachesZero(t *testing.T) {
	estimates := make([]float64, 50)
	for i := range estimates {
		estimates[i] = 1 + float64(i)*0.1
	}

	result, err := ConfidenceIntervals(baseWithEstimate(3), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Terms[0].PValue)
}

func TestPValueNegativeEstimateMirrorsTail(t *testing.T) {
	// 2 of 20 draws on the positive side, base estimate negative.
	estimates := []float64{
		-5, -4, -4, -3, -3, -3, -2, -2, -2, -2,
		-1, -1, -1, -1, -1, -1, -0.5, -0.5, 0.5, 1,
	}
	result, err := ConfidenceIntervals(baseWithEstimate(-2), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2*2.0/20.0, result.Terms[0].PValue, 1e-9)
}

func TestPValueCappedAtOne(t *testing.T) {
	// Base positive but most draws at or below zero.
	estimates := []float64{-3, -2, -2, -1, -1, -1, 0, 0, 0, 1, 1, 2}
	result, err := ConfidenceIntervals(baseWithEstimate(0.5), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Terms[0].PValue)
}

func TestBootstrapIntervalWithinDrawRange(t *testing.T) {
	estimates := make([]float64, 50)
	for i := range estimates {
		estimates[i] = float64(i)
	}
	result, err := ConfidenceIntervals(baseWithEstimate(25), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)

	term := result.Terms[0]
	assert.Greater(t, term.BootLower, 0.0)
	assert.Less(t, term.BootUpper, 49.0)
	assert.Less(t, term.BootLower, term.BootUpper)
}

func TestParametricIntervalNormalVsT(t *testing.T) {
	records := recordsFromEstimates(make([]float64, 30))

	normal, err := ConfidenceIntervals(baseWithEstimate(1), records, CIOptions{})
	require.NoError(t, err)
	tDist, err := ConfidenceIntervals(baseWithEstimate(1), records, CIOptions{DF: 5})
	require.NoError(t, err)

	// 1 ± 1.96 × 0.5 for the normal; the t interval is wider.
	assert.InDelta(t, 1-1.959964*0.5, normal.Terms[0].ParamLower, 1e-4)
	assert.InDelta(t, 1+1.959964*0.5, normal.Terms[0].ParamUpper, 1e-4)
	assert.Less(t, tDist.Terms[0].ParamLower, normal.Terms[0].ParamLower)
	assert.Greater(t, tDist.Terms[0].ParamUpper, normal.Terms[0].ParamUpper)
	assert.True(t, math.IsInf(normal.DF, 1))
	assert.Equal(t, 5.0, tDist.DF)
}

func TestExplicitProbabilityEndpoints(t *testing.T) {
	estimates := make([]float64, 100)
	for i := range estimates {
		estimates[i] = float64(i)
	}
	probs := [2]float64{0.1, 0.9}
	result, err := ConfidenceIntervals(baseWithEstimate(50), recordsFromEstimates(estimates), CIOptions{Probs: &probs})
	require.NoError(t, err)

	assert.Equal(t, 0.1, result.Lower)
	assert.Equal(t, 0.9, result.Upper)
	assert.InDelta(t, 9.5, result.Terms[0].BootLower, 1.5)
	assert.InDelta(t, 89.5, result.Terms[0].BootUpper, 1.5)
}

func TestInvalidEndpointsAreConfigErrors(t *testing.T) {
	records := recordsFromEstimates(make([]float64, 20))

	bad := [2]float64{0.9, 0.1}
	_, err := ConfidenceIntervals(baseWithEstimate(0), records, CIOptions{Probs: &bad})
	assert.True(t, rserrors.IsConfigError(err))

	_, err = ConfidenceIntervals(baseWithEstimate(0), records, CIOptions{Alpha: 1.5})
	assert.True(t, rserrors.IsConfigError(err))
}

func TestFailedRecordsAreIgnoredPerTerm(t *testing.T) {
	records := recordsFromEstimates([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	records = append(records, failureRecord(), failureRecord())

	result, err := ConfidenceIntervals(baseWithEstimate(6), records, CIOptions{})
	require.NoError(t, err)
	assert.Equal(t, 14, result.Resamples)
	assert.Equal(t, 2, result.Failures)
	assert.Equal(t, 12, result.Terms[0].Used)
	require.NoError(t, result.Terms[0].Err)
}

func TestUnderPoweredTermIsReportedNotFatal(t *testing.T) {
	records := recordsFromEstimates([]float64{1, 2, 3, 4, 5})

	result, err := ConfidenceIntervals(baseWithEstimate(3), records, CIOptions{})
	require.NoError(t, err, "under-powered terms do not fail the run")

	term := result.Terms[0]
	require.Error(t, term.Err)
	assert.True(t, rserrors.IsUnderPowered(term.Err))
	assert.True(t, math.IsNaN(term.BootLower))
	assert.True(t, math.IsNaN(term.BootUpper))
	assert.True(t, math.IsNaN(term.PValue))
	// Parametric columns are still available.
	assert.False(t, math.IsNaN(term.ParamLower))

	assert.Len(t, result.UnderPowered(), 1)
}

func TestAllRecordsFailedIsConfigError(t *testing.T) {
	records := []Record{failureRecord(), failureRecord()}
	_, err := ConfidenceIntervals(baseWithEstimate(0), records, CIOptions{})
	require.Error(t, err)
	assert.True(t, rserrors.IsConfigError(err))
}

func TestMultiComponentResultsAreIndependent(t *testing.T) {
	base := CoefficientSet{
		"conditional":   {{Term: "(Intercept)", Estimate: 2, SE: 0.3}, {Term: "x1", Estimate: -1, SE: 0.2}},
		"zero_inflated": {{Term: "(Intercept)", Estimate: -0.5, SE: 0.4}},
	}
	records := make([]Record, 30)
	for i := range records {
		shift := float64(i) * 0.01
		records[i] = Record{Coefficients: CoefficientSet{
			"conditional":   {{Term: "(Intercept)", Estimate: 2 + shift, SE: 0.3}, {Term: "x1", Estimate: -1 - shift, SE: 0.2}},
			"zero_inflated": {{Term: "(Intercept)", Estimate: -0.5 + shift, SE: 0.4}},
		}}
	}

	result, err := ConfidenceIntervals(base, records, CIOptions{DF: 27})
	require.NoError(t, err)
	require.Len(t, result.Terms, 3)

	// Components come out in sorted label order, terms in table order.
	assert.Equal(t, "conditional", result.Terms[0].Component)
	assert.Equal(t, "(Intercept)", result.Terms[0].Term)
	assert.Equal(t, "conditional", result.Terms[1].Component)
	assert.Equal(t, "x1", result.Terms[1].Term)
	assert.Equal(t, "zero_inflated", result.Terms[2].Component)
	for _, term := range result.Terms {
		assert.Equal(t, 30, term.Used)
		require.NoError(t, term.Err)
	}
}

func TestOrderInsensitivity(t *testing.T) {
	estimates := make([]float64, 40)
	for i := range estimates {
		estimates[i] = float64(i%10) - 5
	}
	forward, err := ConfidenceIntervals(baseWithEstimate(0), recordsFromEstimates(estimates), CIOptions{})
	require.NoError(t, err)

	reversed := make([]float64, len(estimates))
	for i, e := range estimates {
		reversed[len(estimates)-1-i] = e
	}
	backward, err := ConfidenceIntervals(baseWithEstimate(0), recordsFromEstimates(reversed), CIOptions{})
	require.NoError(t, err)

	assert.Equal(t, forward.Terms, backward.Terms)
}
