package regression

import (
	"fmt"

	"albumrank/pkg/dataprep"
	"albumrank/pkg/stats"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// Intercept names the constant column of every design.
const Intercept = "(Intercept)"

// TermKind says how a predictor enters the design.
type TermKind int

const (
	Numeric TermKind = iota
	Categorical
)

func (k TermKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Term is one predictor of a model formula.
type Term struct {
	Name string
	Kind TermKind
}

// NumericTerm and CategoricalTerm are shorthands for building formulas.
func NumericTerm(name string) Term     { return Term{Name: name, Kind: Numeric} }
func CategoricalTerm(name string) Term { return Term{Name: name, Kind: Categorical} }

// TermSpan locates a term's coefficients: indices [Start, End) of
// Fit.Coefficients. A categorical term with one level has Start == End.
type TermSpan struct {
	Term
	Start, End int
	Reference  string // categorical terms only
}

// DF is the number of coefficients the term contributes.
func (s TermSpan) DF() int { return s.End - s.Start }

type options struct {
	references map[string]string
}

// Option configures OLS.
type Option func(*options)

// WithReference fixes the reference level of a categorical term. Without it
// the first level in sorted order is used.
func WithReference(term, level string) Option {
	return func(o *options) { o.references[term] = level }
}

// design expands terms into a model matrix with a leading intercept column.
type design struct {
	X     *mat.Dense
	y     []float64
	names []string
	spans []TermSpan
}

func buildDesign(df dataframe.DataFrame, response string, terms []Term, o *options) (*design, error) {
	columns := []string{response}
	for _, t := range terms {
		columns = append(columns, t.Name)
	}
	if err := dataprep.RequireColumns(df, columns...); err != nil {
		return nil, err
	}

	n := df.Nrow()
	if n == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrRankDeficient)
	}
	y := dataprep.Floats(df, response)
	if c := stats.CountNaN(y); c > 0 {
		return nil, fmt.Errorf("%w: %s has %d missing", ErrMissingValues, response, c)
	}

	cols := [][]float64{ones(n)}
	names := []string{Intercept}
	var spans []TermSpan
	for _, t := range terms {
		span := TermSpan{Term: t, Start: len(names)}
		switch t.Kind {
		case Categorical:
			values := dataprep.Categories(df, t.Name)
			for _, v := range values {
				if v == "" {
					return nil, fmt.Errorf("%w: %s", ErrMissingValues, t.Name)
				}
			}
			d, err := dataprep.DummyEncode(values, o.references[t.Name])
			if err != nil {
				return nil, fmt.Errorf("regression: encode %s: %w", t.Name, err)
			}
			span.Reference = d.Reference
			for k, level := range d.Levels {
				cols = append(cols, d.Columns[k])
				names = append(names, t.Name+"["+level+"]")
			}
		default:
			v := dataprep.Floats(df, t.Name)
			if c := stats.CountNaN(v); c > 0 {
				return nil, fmt.Errorf("%w: %s has %d missing", ErrMissingValues, t.Name, c)
			}
			cols = append(cols, v)
			names = append(names, t.Name)
		}
		span.End = len(names)
		spans = append(spans, span)
	}

	X := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		X.SetCol(j, c)
	}
	return &design{X: X, y: y, names: names, spans: spans}, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
