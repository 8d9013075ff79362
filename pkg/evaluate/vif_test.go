package evaluate

import (
	"math"
	"testing"

	"albumrank/pkg/regression"
	"albumrank/pkg/stats"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVIFOrthogonalPredictors(t *testing.T) {
	x1 := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	x2 := []float64{1, 1, -1, -1, 1, 1, -1, -1}
	y := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	vifs, err := VIF(fitColumns(t, y, x1, x2), VIFModerate, VIFHigh)
	require.NoError(t, err)
	require.Len(t, vifs, 2)
	for _, v := range vifs {
		assert.InDelta(t, 1.0, v.GVIF, 1e-9, v.Term)
		assert.Equal(t, 1, v.DF)
		assert.Empty(t, v.Flag)
	}
}

func TestVIFMatchesOneOverOneMinusR2(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	x2 := []float64{1, 4, 9, 16, 25, 36, 49, 64, 81, 100}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7, 10, 9}
	r := stats.Correlation(x1, x2)
	vifs, err := VIF(fitColumns(t, y, x1, x2), VIFModerate, VIFHigh)
	require.NoError(t, err)
	for _, v := range vifs {
		assert.InDelta(t, 1/(1-r*r), v.GVIF, 1e-6, v.Term)
		assert.InDelta(t, math.Sqrt(v.GVIF), v.Adjusted, 1e-9)
	}
	assert.Equal(t, "high", vifs[0].Flag, "r = %.4f", r)
}

func TestVIFFlags(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	x2 := []float64{1.3, 1.8, 3.4, 3.7, 5.2, 6.4, 6.9, 7.6}
	y := []float64{5, 3, 6, 2, 7, 1, 8, 4}
	fit := fitColumns(t, y, x1, x2)
	vifs, err := VIF(fit, VIFModerate, VIFHigh)
	require.NoError(t, err)
	require.NotEmpty(t, vifs)
	assert.Greater(t, vifs[0].GVIF, VIFHigh)
	assert.Equal(t, "high", vifs[0].Flag)

	loose, err := VIF(fit, 1000, 2000)
	require.NoError(t, err)
	assert.Empty(t, loose[0].Flag)
}

func TestVIFCategoricalTerm(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, series.Float, "y"),
		series.New([]float64{2, 1, 4, 3, 6, 5, 8, 7, 9}, series.Float, "x"),
		series.New([]string{"a", "b", "c", "a", "b", "c", "a", "c", "b"}, series.String, "g"),
	)
	fit, err := regression.OLS(df, "y", []regression.Term{
		regression.NumericTerm("x"),
		regression.CategoricalTerm("g"),
	})
	require.NoError(t, err)

	vifs, err := VIF(fit, VIFModerate, VIFHigh)
	require.NoError(t, err)
	require.Len(t, vifs, 2)
	g := vifs[1]
	assert.Equal(t, "g", g.Term)
	assert.Equal(t, 2, g.DF)
	assert.GreaterOrEqual(t, g.GVIF, 1.0-1e-9)
	assert.InDelta(t, math.Pow(g.GVIF, 0.25), g.Adjusted, 1e-12)
}
