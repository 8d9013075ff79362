package stats

// Standardize returns (x - mean) / sd using the sample standard deviation.
// A constant slice maps to zeros.
func Standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) < 2 {
		return out
	}
	m, sd := Mean(x), Std(x)
	if sd == 0 {
		return out
	}
	for i, v := range x {
		out[i] = (v - m) / sd
	}
	return out
}

// Column extracts column j of a row-major matrix.
func Column(X [][]float64, j int) []float64 {
	col := make([]float64, len(X))
	for i := range X {
		col[i] = X[i][j]
	}
	return col
}
