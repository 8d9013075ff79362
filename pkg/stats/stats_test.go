package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryStatistics(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(x), 1e-12)
	assert.InDelta(t, 32.0/7, Variance(x), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7), Std(x), 1e-12)
	lo, hi := MinMax(x)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 9.0, hi)
	assert.Equal(t, 40.0, Sum(x))
}

func TestEmptyInputsAreNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Variance([]float64{1})))
	assert.True(t, math.IsNaN(Median(nil)))
	lo, hi := MinMax(nil)
	assert.True(t, math.IsNaN(lo))
	assert.True(t, math.IsNaN(hi))
}

func TestPercentile(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{75, 3.25},
		{100, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(x, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.Equal(t, []float64{4, 1, 3, 2}, x, "input must not be reordered")
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Correlation(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Correlation(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.True(t, math.IsNaN(Correlation(x, []float64{3, 3, 3, 3, 3})))
	assert.True(t, math.IsNaN(Correlation(x, []float64{1, 2})))
}

func TestPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	xs, ys := PairwiseComplete([]float64{1, nan, 3, 4}, []float64{10, 20, nan, 40})
	assert.Equal(t, []float64{1, 4}, xs)
	assert.Equal(t, []float64{10, 40}, ys)
	assert.Equal(t, 2, CountNaN([]float64{nan, 1, nan}))
	assert.Equal(t, []float64{1}, DropNaN([]float64{nan, 1, nan}))
}

func TestOutliers(t *testing.T) {
	x := []float64{1, 2, 3, 4, 100}
	lo, hi := Fences(x)
	assert.InDelta(t, -1.0, lo, 1e-12)
	assert.InDelta(t, 7.0, hi, 1e-12)
	assert.Equal(t, []int{4}, Outliers(x))
	assert.Empty(t, Outliers(nil))
}

func TestStandardize(t *testing.T) {
	z := Standardize([]float64{1, 2, 3})
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, z, 1e-12)
	assert.Equal(t, []float64{0, 0}, Standardize([]float64{5, 5}))
	assert.Equal(t, []float64{2, 5}, Column([][]float64{{1, 2}, {4, 5}}, 1))
}
