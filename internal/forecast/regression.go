package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// linearModel is an ordinary-least-squares fit over an ordered series
// of monthly totals, with x the zero-based chronological month index.
// It lives only for the duration of one prediction call.
type linearModel struct {
	slope     float64
	intercept float64
	rsquared  float64
}

// fitLine fits values against their indices. Callers must pass at
// least two values.
func fitLine(values []float64) linearModel {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	r2 := stat.RSquared(xs, values, nil, intercept, slope)
	// A flat series has zero variance to explain; the fit is exact.
	if math.IsNaN(r2) {
		r2 = 1
	}

	return linearModel{slope: slope, intercept: intercept, rsquared: r2}
}

// at evaluates the fitted line at month index x.
func (m linearModel) at(x int) float64 {
	return m.slope*float64(x) + m.intercept
}

// confidenceFor maps goodness of fit to a coarse confidence label.
func confidenceFor(r2 float64) string {
	switch {
	case r2 >= 0.7:
		return ConfidenceHigh
	case r2 >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
