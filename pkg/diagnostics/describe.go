// Package diagnostics summarises a prepared album frame: missingness,
// numeric distributions, categorical frequencies and correlations. It never
// modifies the frame.
package diagnostics

import (
	"albumrank/pkg/dataprep"
	"albumrank/pkg/stats"

	"github.com/go-gota/gota/dataframe"
)

// Missing is the missing-value count of one column.
type Missing struct {
	Column   string
	Count    int
	Fraction float64
}

// Summary describes the present values of a numeric column.
type Summary struct {
	Column   string
	Count    int
	Mean     float64
	Std      float64
	Min      float64
	Q1       float64
	Median   float64
	Q3       float64
	Max      float64
	Outliers int // outside the 1.5·IQR fences
}

// IQR is the interquartile range.
func (s Summary) IQR() float64 { return s.Q3 - s.Q1 }

// Frequency is the level table of a categorical column.
type Frequency struct {
	Column string
	Levels []dataprep.LevelCount
}

// Report is the full descriptive summary.
type Report struct {
	Rows        int
	Missing     []Missing
	Numeric     []Summary
	Categorical []Frequency
	// Correlation[i][j] is the pairwise-complete Pearson correlation of
	// Numeric[i] and Numeric[j].
	Correlation [][]float64
	Columns     []string // correlation row/column labels
}

// Describe builds a Report. Missing counts cover every column of df.
func Describe(df dataframe.DataFrame, numeric, categorical []string) (*Report, error) {
	if err := dataprep.RequireColumns(df, append(append([]string{}, numeric...), categorical...)...); err != nil {
		return nil, err
	}
	n := df.Nrow()
	r := &Report{Rows: n, Columns: append([]string(nil), numeric...)}

	numSet := map[string]bool{}
	for _, c := range numeric {
		numSet[c] = true
	}
	for _, name := range df.Names() {
		var c int
		if numSet[name] {
			c = stats.CountNaN(dataprep.Floats(df, name))
		} else {
			for _, v := range dataprep.Categories(df, name) {
				if v == "" {
					c++
				}
			}
		}
		m := Missing{Column: name, Count: c}
		if n > 0 {
			m.Fraction = float64(c) / float64(n)
		}
		r.Missing = append(r.Missing, m)
	}

	cols := make([][]float64, len(numeric))
	for j, name := range numeric {
		cols[j] = dataprep.Floats(df, name)
		r.Numeric = append(r.Numeric, Summarize(name, cols[j]))
	}
	for _, name := range categorical {
		r.Categorical = append(r.Categorical, Frequency{
			Column: name,
			Levels: dataprep.FrequencyTable(dataprep.Categories(df, name)),
		})
	}

	r.Correlation = make([][]float64, len(cols))
	for i := range cols {
		r.Correlation[i] = make([]float64, len(cols))
		for j := range cols {
			if i == j {
				r.Correlation[i][j] = 1
				continue
			}
			if j < i {
				r.Correlation[i][j] = r.Correlation[j][i]
				continue
			}
			x, y := stats.PairwiseComplete(cols[i], cols[j])
			r.Correlation[i][j] = stats.Correlation(x, y)
		}
	}
	return r, nil
}

// Summarize describes the present values of x.
func Summarize(name string, x []float64) Summary {
	v := stats.DropNaN(x)
	lo, hi := stats.MinMax(v)
	return Summary{
		Column:   name,
		Count:    len(v),
		Mean:     stats.Mean(v),
		Std:      stats.Std(v),
		Min:      lo,
		Q1:       stats.Percentile(v, 25),
		Median:   stats.Median(v),
		Q3:       stats.Percentile(v, 75),
		Max:      hi,
		Outliers: len(stats.Outliers(v)),
	}
}

// MissingIn returns the missing count of column, or 0 if it was not reported.
func (r *Report) MissingIn(column string) int {
	for _, m := range r.Missing {
		if m.Column == column {
			return m.Count
		}
	}
	return 0
}
