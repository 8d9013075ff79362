package evaluate

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrSampleSize is returned for samples outside [3, 5000].
	ErrSampleSize = errors.New("evaluate: sample size must be between 3 and 5000")
	// ErrConstantSample is returned when every value is identical.
	ErrConstantSample = errors.New("evaluate: all values are identical")
)

// ShapiroResult is a Shapiro-Wilk normality test.
type ShapiroResult struct {
	W      float64
	PValue float64
	N      int
}

// RejectsNormality reports p < alpha.
func (r ShapiroResult) RejectsNormality(alpha float64) bool { return r.PValue < alpha }

// Royston (1995) polynomial coefficients.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk tests x for normality with Royston's approximation, valid for
// 3 <= n <= 5000. Small p-values are evidence against normality.
func ShapiroWilk(x []float64) (ShapiroResult, error) {
	n := len(x)
	if n < 3 || n > 5000 {
		return ShapiroResult{}, ErrSampleSize
	}
	xs := append([]float64(nil), x...)
	sort.Float64s(xs)
	if xs[n-1]-xs[0] < 1e-19*math.Max(1, math.Abs(xs[0])) {
		return ShapiroResult{}, ErrConstantSample
	}

	a := swCoefficients(n)
	num := 0.0
	for i := range a {
		num += a[i] * (xs[n-1-i] - xs[i])
	}
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	w := num * num / ss
	if w > 1 {
		w = 1
	}
	return ShapiroResult{W: w, PValue: swPValue(w, n), N: n}, nil
}

// swCoefficients returns the positive half of the antisymmetric weights:
// a[i] multiplies x_(n-i) - x_(i+1).
func swCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, nn2)
	summ2 := 0.0
	for i := 0; i < nn2; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)
	a1 := poly(swC1, rsn) - m[0]/ssumm2

	start := 1
	var fac float64
	if n > 5 {
		start = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := start; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func swPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6, stqr = 6 / math.Pi, math.Pi / 3
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(p, 0)
	}
	an := float64(n)
	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}
	return distuv.Normal{Mu: m, Sigma: s}.Survival(y)
}

// poly evaluates c[0] + c[1] x + c[2] x^2 + ...
func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
