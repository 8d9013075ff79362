package evaluate

import (
	"testing"

	"albumrank/pkg/regression"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fitColumns fits y on an intercept plus the given columns, named x1, x2, ...
func fitColumns(t *testing.T, y []float64, cols ...[]float64) *regression.Fit {
	t.Helper()
	n := len(y)
	X := mat.NewDense(n, len(cols)+1, nil)
	names := []string{regression.Intercept}
	for i := range n {
		X.Set(i, 0, 1)
	}
	for j, c := range cols {
		X.SetCol(j+1, c)
		names = append(names, "x"+string(rune('1'+j)))
	}
	fit, err := regression.FitMatrix(X, y, names)
	require.NoError(t, err)
	return fit
}

// textbook is y = (1, 3, 2, 5, 4) on x = 1..5: slope 0.8, s² = 1.2.
func textbook(t *testing.T) *regression.Fit {
	return fitColumns(t, []float64{1, 3, 2, 5, 4}, []float64{1, 2, 3, 4, 5})
}
