package dataprep

import (
	"math"

	"albumrank/pkg/album"

	"github.com/go-gota/gota/dataframe"
)

// Floats returns a column as float64 with missing entries as NaN.
func Floats(df dataframe.DataFrame, column string) []float64 {
	s := df.Col(column)
	out := s.Float()
	for i := range out {
		if album.IsMissing(s.Elem(i)) {
			out[i] = math.NaN()
		}
	}
	return out
}

// Categories returns a column as strings with missing entries as "".
func Categories(df dataframe.DataFrame, column string) []string {
	return album.Strings(df.Col(column))
}

// FeatureSelect builds a row-major matrix from the listed numeric columns.
func FeatureSelect(df dataframe.DataFrame, columns []string) ([][]float64, error) {
	if err := RequireColumns(df, columns...); err != nil {
		return nil, err
	}
	cols := make([][]float64, len(columns))
	for j, c := range columns {
		cols[j] = Floats(df, c)
	}
	out := make([][]float64, df.Nrow())
	for i := range out {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = cols[j][i]
		}
		out[i] = row
	}
	return out, nil
}
