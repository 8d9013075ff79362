package dataprep

import (
	"errors"
	"fmt"
	"math"

	"albumrank/pkg/album"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("dataprep: missing column")

// Prepare runs the fixed filter sequence: drop unranked rows, derive the
// average birth year, project onto album.Projected.
func Prepare(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	ranked, err := FilterRanked(df)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	derived, err := DeriveAverageBirthYear(ranked)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return Project(derived, album.Projected)
}

// FilterRanked drops rows whose 2020 rank is missing.
func FilterRanked(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return DropMissing(df, album.Rank2020)
}

// DropMissing keeps the rows where column is present.
func DropMissing(df dataframe.DataFrame, column string) (dataframe.DataFrame, error) {
	if err := RequireColumns(df, column); err != nil {
		return dataframe.DataFrame{}, err
	}
	out := df.Filter(dataframe.F{
		Colname:    column,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool { return !album.IsMissing(el) },
	})
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("dataprep: filter %s: %w", column, out.Err)
	}
	return out, nil
}

// DropMissingCategory drops rows whose category in column is missing and
// reports how many were removed. For artist_gender these are the
// multi-artist compilations, which have no single attributable artist.
func DropMissingCategory(df dataframe.DataFrame, column string) (dataframe.DataFrame, int, error) {
	out, err := DropMissing(df, column)
	if err != nil {
		return dataframe.DataFrame{}, 0, err
	}
	return out, df.Nrow() - out.Nrow(), nil
}

// DeriveAverageBirthYear adds average_birth_year = birth year sum / member
// count. It is NaN when either input is missing or the count is not positive.
func DeriveAverageBirthYear(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := RequireColumns(df, album.ArtistBirthYearSum, album.ArtistMemberCount); err != nil {
		return dataframe.DataFrame{}, err
	}
	sums := Floats(df, album.ArtistBirthYearSum)
	counts := Floats(df, album.ArtistMemberCount)
	avg := make([]float64, len(sums))
	for i := range sums {
		avg[i] = AverageBirthYear(sums[i], counts[i])
	}
	out := df.Mutate(series.New(avg, series.Float, album.AverageBirthYear))
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("dataprep: derive %s: %w", album.AverageBirthYear, out.Err)
	}
	return out, nil
}

// AverageBirthYear divides the summed birth years by the member count.
func AverageBirthYear(sum, count float64) float64 {
	if math.IsNaN(sum) || math.IsNaN(count) || count <= 0 {
		return math.NaN()
	}
	return sum / count
}

// Project keeps exactly the listed columns, in order.
func Project(df dataframe.DataFrame, columns []string) (dataframe.DataFrame, error) {
	if err := RequireColumns(df, columns...); err != nil {
		return dataframe.DataFrame{}, err
	}
	out := df.Select(columns)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("dataprep: project: %w", out.Err)
	}
	return out, nil
}

// RequireColumns fails with ErrMissingColumn naming every absent column.
func RequireColumns(df dataframe.DataFrame, columns ...string) error {
	have := make(map[string]struct{}, df.Ncol())
	for _, name := range df.Names() {
		have[name] = struct{}{}
	}
	var missing []string
	for _, c := range columns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return nil
}
