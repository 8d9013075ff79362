package dataprep

import (
	"errors"
	"math"
	"strings"
	"testing"

	"albumrank/pkg/album"
	"albumrank/pkg/data"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceCSV = `sort_name,clean_name,album,rank_2020,release_year,peak_billboard_position,spotify_popularity,artist_member_count,artist_gender,artist_birth_year_sum,genre
beatles,The Beatles,Abbey Road,5,1969,1,80,4,Male,7768,Rock
mitchell,Joni Mitchell,Blue,3,1971,15,70,1,Female,1943,Folk
various,Various Artists,Compilation,NA,1980,20,,NA,,NA,Mixed
solo,Solo Artist,Album X,100,1990,201,NA,0,Male,0,Pop
duo,Duo,Album Y,200,2000,50,60,2,Male/Female,NA,Pop
`

func readSource(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	df, err := data.Read(strings.NewReader(csv))
	require.NoError(t, err)
	return df
}

func TestPrepare(t *testing.T) {
	df, err := Prepare(readSource(t, sourceCSV))
	require.NoError(t, err)

	assert.Equal(t, album.Projected, df.Names())
	require.Equal(t, 4, df.Nrow())
	for i, r := range Floats(df, album.Rank2020) {
		assert.False(t, math.IsNaN(r), "row %d has no rank", i)
	}

	avg := Floats(df, album.AverageBirthYear)
	assert.Equal(t, 1942.0, avg[0])
	assert.Equal(t, 1943.0, avg[1])
	assert.True(t, math.IsNaN(avg[2]), "zero members")
	assert.True(t, math.IsNaN(avg[3]), "missing birth year sum")
}

func TestPrepareIsDeterministic(t *testing.T) {
	a, err := Prepare(readSource(t, sourceCSV))
	require.NoError(t, err)
	b, err := Prepare(readSource(t, sourceCSV))
	require.NoError(t, err)
	assert.Equal(t, a.Records(), b.Records())
}

func TestPrepareMissingColumn(t *testing.T) {
	csv := "sort_name,rank_2020,artist_member_count\nx,1,2\n"
	_, err := Prepare(readSource(t, csv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), album.ArtistBirthYearSum)
}

func TestAverageBirthYear(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name       string
		sum, count float64
		want       float64
	}{
		{"solo", 1943, 1, 1943},
		{"band", 7768, 4, 1942},
		{"zero members", 0, 0, nan},
		{"negative members", 1900, -1, nan},
		{"unknown members", 1900, nan, nan},
		{"unknown sum", nan, 2, nan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageBirthYear(tt.sum, tt.count)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropMissingCategory(t *testing.T) {
	csv := `sort_name,rank_2020,artist_gender
a,1,Male
various,2,
b,3,Female
compilation,4,NA
`
	df := readSource(t, csv)
	out, dropped, err := DropMissingCategory(df, album.ArtistGender)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, df.Nrow()-2, out.Nrow())
	for _, g := range Categories(out, album.ArtistGender) {
		assert.NotEmpty(t, g)
	}

	_, _, err = DropMissingCategory(df, "nope")
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestFeatureSelect(t *testing.T) {
	df := readSource(t, sourceCSV)
	X, err := FeatureSelect(df, []string{album.ReleaseYear, album.SpotifyPopularity})
	require.NoError(t, err)
	require.Len(t, X, 5)
	assert.Equal(t, []float64{1969, 80}, X[0])
	assert.True(t, math.IsNaN(X[2][1]))

	_, err = FeatureSelect(df, []string{"nope"})
	assert.True(t, errors.Is(err, ErrMissingColumn))
}
