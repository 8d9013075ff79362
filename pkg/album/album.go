// Package album describes the Rolling Stone album table: its column names,
// the source types used when parsing it, and a typed Record view of a frame.
package album

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Source and derived column names.
const (
	SortName              = "sort_name"
	CleanName             = "clean_name"
	Album                 = "album"
	Rank2020              = "rank_2020"
	ReleaseYear           = "release_year"
	PeakBillboardPosition = "peak_billboard_position"
	SpotifyPopularity     = "spotify_popularity"
	ArtistMemberCount     = "artist_member_count"
	ArtistGender          = "artist_gender"
	ArtistBirthYearSum    = "artist_birth_year_sum"
	AverageBirthYear      = "average_birth_year"
)

// Projected lists the ten columns kept after filtering, in output order.
var Projected = []string{
	SortName, CleanName, Album,
	Rank2020, ReleaseYear, PeakBillboardPosition, SpotifyPopularity,
	ArtistMemberCount, ArtistGender, AverageBirthYear,
}

// Numeric lists the projected numeric columns.
var Numeric = []string{
	Rank2020, ReleaseYear, PeakBillboardPosition, SpotifyPopularity,
	ArtistMemberCount, AverageBirthYear,
}

// Categorical lists the projected categorical columns used in modelling.
var Categorical = []string{ArtistGender}

// SourceTypes pins the parse type of every source column the analysis reads.
// Columns not listed here are left to type detection.
func SourceTypes() map[string]series.Type {
	return map[string]series.Type{
		SortName:              series.String,
		CleanName:             series.String,
		Album:                 series.String,
		Rank2020:              series.Float,
		ReleaseYear:           series.Float,
		PeakBillboardPosition: series.Float,
		SpotifyPopularity:     series.Float,
		ArtistMemberCount:     series.Float,
		ArtistGender:          series.String,
		ArtistBirthYearSum:    series.Float,
	}
}

// Record is one album. Missing numeric fields are NaN, a missing gender is "".
type Record struct {
	ArtistKey             string
	ArtistName            string
	Album                 string
	Rank2020              float64
	ReleaseYear           float64
	PeakBillboardPosition float64
	SpotifyPopularity     float64
	ArtistMemberCount     float64
	AverageBirthYear      float64
	ArtistGender          string
}

// Records converts a projected frame into records. Columns absent from the
// frame leave the corresponding field missing.
func Records(df dataframe.DataFrame) []Record {
	n := df.Nrow()
	out := make([]Record, n)
	str := func(col string) []string {
		if !hasColumn(df, col) {
			return make([]string, n)
		}
		return Strings(df.Col(col))
	}
	num := func(col string) []float64 {
		if !hasColumn(df, col) {
			v := make([]float64, n)
			for i := range v {
				v[i] = math.NaN()
			}
			return v
		}
		return df.Col(col).Float()
	}
	keys, names, albums, genders := str(SortName), str(CleanName), str(Album), str(ArtistGender)
	rank, year, peak, pop := num(Rank2020), num(ReleaseYear), num(PeakBillboardPosition), num(SpotifyPopularity)
	members, birth := num(ArtistMemberCount), num(AverageBirthYear)
	for i := range out {
		out[i] = Record{
			ArtistKey:             keys[i],
			ArtistName:            names[i],
			Album:                 albums[i],
			Rank2020:              rank[i],
			ReleaseYear:           year[i],
			PeakBillboardPosition: peak[i],
			SpotifyPopularity:     pop[i],
			ArtistMemberCount:     members[i],
			AverageBirthYear:      birth[i],
			ArtistGender:          genders[i],
		}
	}
	return out
}

// Strings returns the series values with missing entries as "".
func Strings(s series.Series) []string {
	out := make([]string, s.Len())
	for i := range out {
		el := s.Elem(i)
		if IsMissing(el) {
			continue
		}
		out[i] = el.String()
	}
	return out
}

// IsMissing reports whether el is absent, treating the loader's missing
// markers and NaN floats the same way.
func IsMissing(el series.Element) bool {
	if el.IsNA() {
		return true
	}
	if el.Type() == series.String {
		switch el.String() {
		case "", "NA", "NaN":
			return true
		}
		return false
	}
	return math.IsNaN(el.Float())
}

func hasColumn(df dataframe.DataFrame, col string) bool {
	for _, name := range df.Names() {
		if name == col {
			return true
		}
	}
	return false
}
