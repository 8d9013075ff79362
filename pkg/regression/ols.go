package regression

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrMissingValues is returned when a response or predictor has gaps.
	ErrMissingValues = errors.New("regression: missing values in model columns")
	// ErrRankDeficient is returned when the design does not identify a
	// unique coefficient vector.
	ErrRankDeficient = errors.New("regression: design matrix is rank deficient")
)

// rankTol is the smallest accepted ratio of the extreme singular values.
const rankTol = 1e-10

// exactTol bounds RSS/TSS below which residuals are rounding error.
const exactTol = 1e-20

// Coefficient is one row of a coefficient table.
type Coefficient struct {
	Name     string
	Estimate float64
	StdError float64
	TValue   float64
	PValue   float64
}

// Fit is an ordinary-least-squares fit. It is not modified after OLS returns.
type Fit struct {
	Response     string
	Coefficients []Coefficient
	Terms        []TermSpan

	Design    *mat.Dense // n x p, column 0 is the intercept
	Y         []float64
	Fitted    []float64
	Residuals []float64
	Leverage  []float64 // diagonal of the hat matrix

	N, P       int // observations, coefficients including the intercept
	DFResidual int

	RSS, TSS   float64
	R2, AdjR2  float64
	Sigma      float64 // residual standard error
	FStatistic float64
	FPValue    float64
	LogLik     float64
	AIC, BIC   float64
}

// OLS regresses response on terms over the rows of df.
func OLS(df dataframe.DataFrame, response string, terms []Term, opts ...Option) (*Fit, error) {
	o := &options{references: map[string]string{}}
	for _, opt := range opts {
		opt(o)
	}
	d, err := buildDesign(df, response, terms, o)
	if err != nil {
		return nil, err
	}
	fit, err := FitMatrix(d.X, d.y, d.names)
	if err != nil {
		return nil, err
	}
	fit.Response = response
	fit.Terms = d.spans
	return fit, nil
}

// FitMatrix fits y on the columns of X, whose first column must be the
// intercept. names labels the columns; each non-intercept column becomes a
// numeric term.
func FitMatrix(X *mat.Dense, y []float64, names []string) (*Fit, error) {
	n, p := X.Dims()
	if len(y) != n {
		return nil, errors.New("regression: X and y length mismatch")
	}
	if len(names) != p {
		return nil, errors.New("regression: one name per design column required")
	}
	if n <= p {
		return nil, fmt.Errorf("%w: %d observations for %d coefficients", ErrRankDeficient, n, p)
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDNone); !ok {
		return nil, fmt.Errorf("%w: SVD failed", ErrRankDeficient)
	}
	sv := svd.Values(nil)
	if sv[0] == 0 || sv[len(sv)-1]/sv[0] < rankTol {
		return nil, fmt.Errorf("%w: condition ratio %.3g", ErrRankDeficient, sv[len(sv)-1]/sv[0])
	}

	var qr mat.QR
	qr.Factorize(X)
	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankDeficient, err)
	}

	var rFull mat.Dense
	qr.RTo(&rFull)
	r := mat.DenseCopyOf(rFull.Slice(0, p, 0, p))
	var rInv mat.Dense
	if err := rInv.Inverse(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankDeficient, err)
	}

	fit := &Fit{
		Terms:      matrixTerms(names),
		Design:     X,
		Y:          append([]float64(nil), y...),
		Fitted:     make([]float64, n),
		Residuals:  make([]float64, n),
		Leverage:   make([]float64, n),
		N:          n,
		P:          p,
		DFResidual: n - p,
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		fit.Fitted[i] = fitted.AtVec(i)
		e := y[i] - fit.Fitted[i]
		fit.Residuals[i] = e
		fit.RSS += e * e
		d := y[i] - mean
		fit.TSS += d * d
	}

	// h_ii = ||x_i R^-1||^2 since (X'X)^-1 = R^-1 R^-T.
	var xr mat.Dense
	xr.Mul(X, &rInv)
	for i := 0; i < n; i++ {
		row := xr.RawRowView(i)
		h := 0.0
		for _, v := range row {
			h += v * v
		}
		fit.Leverage[i] = h
	}

	df := float64(fit.DFResidual)
	sigma2 := fit.RSS / df
	fit.Sigma = math.Sqrt(sigma2)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.Coefficients = make([]Coefficient, p)
	for j := 0; j < p; j++ {
		v := 0.0
		for k := 0; k < p; k++ {
			c := rInv.At(j, k)
			v += c * c
		}
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * v)
		t := ratio(est, se)
		fit.Coefficients[j] = Coefficient{
			Name:     names[j],
			Estimate: est,
			StdError: se,
			TValue:   t,
			PValue:   twoSided(tDist, t),
		}
	}

	if fit.TSS > 0 {
		fit.R2 = 1 - fit.RSS/fit.TSS
		fit.AdjR2 = 1 - (1-fit.R2)*float64(n-1)/df
	} else {
		fit.R2, fit.AdjR2 = math.NaN(), math.NaN()
	}
	if p > 1 {
		fit.FStatistic = ratio((fit.TSS-fit.RSS)/float64(p-1), sigma2)
		fit.FPValue = fSurvival(float64(p-1), df, fit.FStatistic)
	} else {
		fit.FStatistic, fit.FPValue = math.NaN(), math.NaN()
	}

	// Gaussian log-likelihood at the ML variance; sigma counts as a parameter.
	nf := float64(n)
	fit.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(fit.RSS/nf) + 1)
	k := float64(p + 1)
	fit.AIC = -2*fit.LogLik + 2*k
	fit.BIC = -2*fit.LogLik + math.Log(nf)*k
	return fit, nil
}

// Coefficient returns the named coefficient.
func (f *Fit) Coefficient(name string) (Coefficient, bool) {
	for _, c := range f.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Exact reports whether the response lies in the column space of the
// design up to rounding.
func (f *Fit) Exact() bool {
	return f.RSS == 0 || f.RSS <= exactTol*f.TSS
}

// Names lists the coefficient names in design order.
func (f *Fit) Names() []string {
	out := make([]string, len(f.Coefficients))
	for i, c := range f.Coefficients {
		out[i] = c.Name
	}
	return out
}

// Term returns the span of the named term.
func (f *Fit) Term(name string) (TermSpan, bool) {
	for _, s := range f.Terms {
		if s.Name == name {
			return s, true
		}
	}
	return TermSpan{}, false
}

// matrixTerms treats every non-intercept column as its own numeric term.
func matrixTerms(names []string) []TermSpan {
	spans := make([]TermSpan, 0, len(names)-1)
	for j := 1; j < len(names); j++ {
		spans = append(spans, TermSpan{Term: NumericTerm(names[j]), Start: j, End: j + 1})
	}
	return spans
}

// ratio divides, mapping 0/0 to 0 and x/0 to a signed infinity. Exact fits
// have zero standard errors.
func ratio(num, den float64) float64 {
	if den == 0 {
		if num == 0 {
			return 0
		}
		return math.Copysign(math.Inf(1), num)
	}
	return num / den
}

func twoSided(t distuv.StudentsT, v float64) float64 {
	if math.IsInf(v, 0) {
		return 0
	}
	return 2 * t.Survival(math.Abs(v))
}

// fSurvival is P(F > x) for an F(d1, d2) variable.
func fSurvival(d1, d2, x float64) float64 {
	if math.IsInf(x, 1) {
		return 0
	}
	if math.IsNaN(x) || x <= 0 {
		return 1
	}
	return distuv.F{D1: d1, D2: d2}.Survival(x)
}

// FSurvival exposes the F upper tail for model comparisons.
func FSurvival(d1, d2, x float64) float64 { return fSurvival(d1, d2, x) }
