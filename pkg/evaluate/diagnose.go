package evaluate

import (
	"errors"
	"math"

	"albumrank/pkg/regression"
)

var posInf = math.Inf(1)

// Thresholds tunes the diagnostic flags.
type Thresholds struct {
	Cook        float64
	VIFModerate float64
	VIFHigh     float64
	Alpha       float64
}

// DefaultThresholds are Cook's D > 1, VIF 5 and 10, alpha 0.05.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Cook:        DefaultCookThreshold,
		VIFModerate: VIFModerate,
		VIFHigh:     VIFHigh,
		Alpha:       DefaultAlpha,
	}
}

// Diagnostics bundles every per-model check.
type Diagnostics struct {
	Cooks        []float64
	MaxCook      float64
	Influential  []int
	Normality    *ShapiroResult // nil for exact fits and untestable residuals
	Linearity    LinearityResult
	BreuschPagan BreuschPaganResult
	VIF          []VIFResult
	Standardized []StandardizedCoefficient
}

// Diagnose runs the influence, normality, linearity, homoscedasticity and
// multicollinearity checks on fit.
func Diagnose(fit *regression.Fit, th Thresholds) (*Diagnostics, error) {
	d := &Diagnostics{
		Cooks:        CooksDistance(fit),
		Linearity:    Linearity(fit),
		Standardized: StandardizedCoefficients(fit),
	}
	for _, c := range d.Cooks {
		if c > d.MaxCook {
			d.MaxCook = c
		}
	}
	d.Influential = Influential(d.Cooks, th.Cook)

	// Residuals of an exact fit are rounding noise.
	if !fit.Exact() {
		sw, err := ShapiroWilk(fit.Residuals)
		switch {
		case err == nil:
			d.Normality = &sw
		case errors.Is(err, ErrSampleSize), errors.Is(err, ErrConstantSample):
		default:
			return nil, err
		}
	}

	var err error
	if d.BreuschPagan, err = BreuschPagan(fit); err != nil {
		return nil, err
	}
	if d.VIF, err = VIF(fit, th.VIFModerate, th.VIFHigh); err != nil {
		return nil, err
	}
	return d, nil
}
