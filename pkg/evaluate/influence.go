package evaluate

import (
	"math"

	"albumrank/pkg/regression"
	"albumrank/pkg/stats"
)

// DefaultCookThreshold marks an observation as disproportionately influential.
const DefaultCookThreshold = 1.0

// CooksDistance returns D_i = e_i^2 / (p s^2) * h_i / (1-h_i)^2 for every
// observation. An exact fit has no influential points and yields zeros; a
// point with leverage 1 yields NaN.
func CooksDistance(fit *regression.Fit) []float64 {
	out := make([]float64, fit.N)
	if fit.Exact() {
		return out
	}
	s2 := fit.Sigma * fit.Sigma
	p := float64(fit.P)
	for i, e := range fit.Residuals {
		h := fit.Leverage[i]
		if h >= 1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = e * e / (p * s2) * h / ((1 - h) * (1 - h))
	}
	return out
}

// Influential lists the observations whose Cook's distance exceeds threshold.
func Influential(cooks []float64, threshold float64) []int {
	var out []int
	for i, d := range cooks {
		if d > threshold {
			out = append(out, i)
		}
	}
	return out
}

// LinearityResult is the residual-versus-fitted view of a fit. There is no
// formal gate: the pairs are plotted and Correlation is reported as a hint.
type LinearityResult struct {
	Fitted      []float64
	Residuals   []float64
	Correlation float64
}

// Linearity pairs fitted values with residuals.
func Linearity(fit *regression.Fit) LinearityResult {
	return LinearityResult{
		Fitted:      fit.Fitted,
		Residuals:   fit.Residuals,
		Correlation: stats.Correlation(fit.Fitted, fit.Residuals),
	}
}

// StandardizedCoefficient is a slope in standard-deviation units.
type StandardizedCoefficient struct {
	Name string
	Beta float64
}

// StandardizedCoefficients rescales every non-intercept slope by
// sd(x_j) / sd(y), the coefficient obtained after scaling all variables to
// unit variance.
func StandardizedCoefficients(fit *regression.Fit) []StandardizedCoefficient {
	sdY := stats.Std(fit.Y)
	out := make([]StandardizedCoefficient, 0, fit.P-1)
	for j := 1; j < fit.P; j++ {
		col := make([]float64, fit.N)
		for i := range col {
			col[i] = fit.Design.At(i, j)
		}
		c := fit.Coefficients[j]
		out = append(out, StandardizedCoefficient{
			Name: c.Name,
			Beta: c.Estimate * stats.Std(col) / sdY,
		})
	}
	return out
}
