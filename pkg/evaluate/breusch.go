package evaluate

import (
	"fmt"

	"albumrank/pkg/regression"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// BreuschPaganResult is the studentized (Koenker) Breusch-Pagan test.
type BreuschPaganResult struct {
	Statistic float64
	DF        int
	PValue    float64
}

// RejectsHomoscedasticity reports p < alpha.
func (r BreuschPaganResult) RejectsHomoscedasticity(alpha float64) bool { return r.PValue < alpha }

// BreuschPagan regresses the squared residuals on the fit's own design and
// returns n·R² against a chi-square with one degree of freedom per slope.
func BreuschPagan(fit *regression.Fit) (BreuschPaganResult, error) {
	df := fit.P - 1
	res := BreuschPaganResult{DF: df, PValue: 1}
	if fit.Exact() || df == 0 {
		return res, nil
	}
	u := make([]float64, fit.N)
	for i, e := range fit.Residuals {
		u[i] = e * e
	}
	aux, err := regression.FitMatrix(fit.Design, u, fit.Names())
	if err != nil {
		return BreuschPaganResult{}, fmt.Errorf("evaluate: breusch-pagan auxiliary fit: %w", err)
	}
	// Constant squared residuals carry no variance to explain.
	if aux.TSS <= 1e-20*floats.Dot(u, u) {
		return res, nil
	}
	res.Statistic = float64(fit.N) * aux.R2
	res.PValue = distuv.ChiSquared{K: float64(df)}.Survival(res.Statistic)
	return res, nil
}
