package evaluate

import (
	"errors"
	"fmt"

	"albumrank/pkg/regression"
)

// ErrNotNested is returned when the smaller model's coefficients are not a
// subset of the larger model's.
var ErrNotNested = errors.New("evaluate: models are not nested")

// DefaultAlpha is the significance level of the comparison.
const DefaultAlpha = 0.05

// ModelSummary is one row of the comparison table.
type ModelSummary struct {
	Name   string
	P      int
	R2     float64
	AdjR2  float64
	AIC    float64
	BIC    float64
	RSS    float64
	LogLik float64
}

// Comparison is the nested-model F test between a restricted model and a
// larger model that adds predictors to it.
type Comparison struct {
	Restricted ModelSummary
	Full       ModelSummary
	DFNum      int // added coefficients
	DFDen      int // residual df of the full model
	FStatistic float64
	PValue     float64
	Preferred  string
}

// Compare tests whether full's extra coefficients reduce the residual sum of
// squares more than chance. The restricted model is preferred unless the p
// value is below alpha.
func Compare(restrictedName string, restricted *regression.Fit, fullName string, full *regression.Fit, alpha float64) (Comparison, error) {
	if restricted.N != full.N {
		return Comparison{}, fmt.Errorf("%w: fitted on %d and %d rows", ErrNotNested, restricted.N, full.N)
	}
	have := make(map[string]struct{}, full.P)
	for _, name := range full.Names() {
		have[name] = struct{}{}
	}
	for _, name := range restricted.Names() {
		if _, ok := have[name]; !ok {
			return Comparison{}, fmt.Errorf("%w: %s missing from %s", ErrNotNested, name, fullName)
		}
	}
	dfNum := full.P - restricted.P
	if dfNum <= 0 {
		return Comparison{}, fmt.Errorf("%w: %s adds no coefficients", ErrNotNested, fullName)
	}

	c := Comparison{
		Restricted: summarize(restrictedName, restricted),
		Full:       summarize(fullName, full),
		DFNum:      dfNum,
		DFDen:      full.DFResidual,
	}
	num := (restricted.RSS - full.RSS) / float64(dfNum)
	den := full.RSS / float64(full.DFResidual)
	switch {
	case den == 0 && num == 0:
		c.FStatistic = 0
	case den == 0:
		c.FStatistic = posInf
	default:
		c.FStatistic = num / den
	}
	c.PValue = regression.FSurvival(float64(c.DFNum), float64(c.DFDen), c.FStatistic)
	c.Preferred = restrictedName
	if c.PValue < alpha {
		c.Preferred = fullName
	}
	return c, nil
}

func summarize(name string, f *regression.Fit) ModelSummary {
	return ModelSummary{
		Name:   name,
		P:      f.P,
		R2:     f.R2,
		AdjR2:  f.AdjR2,
		AIC:    f.AIC,
		BIC:    f.BIC,
		RSS:    f.RSS,
		LogLik: f.LogLik,
	}
}
