package stats

// Fences returns the Tukey fences Q1 - 1.5·IQR and Q3 + 1.5·IQR, the
// whisker limits of a box plot.
func Fences(x []float64) (lower, upper float64) {
	q1, q3 := Percentile(x, 25), Percentile(x, 75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// Outliers returns the indices of values outside the Tukey fences.
func Outliers(x []float64) []int {
	if len(x) == 0 {
		return nil
	}
	lo, hi := Fences(x)
	var out []int
	for i, v := range x {
		if v < lo || v > hi {
			out = append(out, i)
		}
	}
	return out
}
