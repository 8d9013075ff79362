package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"albumrank/pkg/album"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `sort_name,clean_name,album,rank_2020,release_year,peak_billboard_position,spotify_popularity,artist_member_count,artist_gender,artist_birth_year_sum,genre
beatles,The Beatles,Abbey Road,5,1969,1,80,4,Male,7768,Rock
mitchell,Joni Mitchell,Blue,3,1971,15,NA,1,Female,1943,Folk
various,Various Artists,Compilation,,1980,20,,,,NA,Mixed
`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadFromURL(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleCSV)
	df, err := Load(context.Background(), srv.URL+"/rolling_stone.csv", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, 11, df.Ncol())
	assert.Equal(t, series.Float, df.Col(album.Rank2020).Type())
	assert.Equal(t, series.String, df.Col(album.ArtistGender).Type())

	pop := df.Col(album.SpotifyPopularity).Float()
	assert.Equal(t, 80.0, pop[0])
	assert.True(t, math.IsNaN(pop[1]), "NA is a missing marker")
	assert.True(t, math.IsNaN(pop[2]), "empty is a missing marker")
	assert.True(t, album.IsMissing(df.Col(album.ArtistGender).Elem(2)))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albums.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	df, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, "missing"},
		{"server error", http.StatusInternalServerError, sampleCSV},
		{"empty body", http.StatusOK, "  \n"},
		{"header only", http.StatusOK, "a,b\n"},
		{"ragged rows", http.StatusOK, "a,b\n1,2\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			_, err := Load(context.Background(), srv.URL, WithHTTPClient(srv.Client()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataUnavailable), err.Error())
		})
	}

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestLoadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithHTTPClient(srv.Client()), WithTimeout(50*time.Millisecond))
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestRead(t *testing.T) {
	df, err := Read(strings.NewReader("rank_2020,album\n1,A\n2,B\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, df.Col(album.Rank2020).Float())
}

func TestReadRejectsNonNumericCells(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		column string
		row    string
	}{
		{"rank", "rank_2020,release_year,album\n1,1970,A\ntwo,nineteen,B\n", album.Rank2020, "row 2"},
		{"release year", "rank_2020,release_year,album\n1,1970,A\n2,nineteen,B\n", album.ReleaseYear, "row 2"},
		{"member count", "rank_2020,artist_member_count\n1,four\n", album.ArtistMemberCount, "row 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataUnavailable))
			assert.Contains(t, err.Error(), "column "+tt.column)
			assert.Contains(t, err.Error(), tt.row)
		})
	}

	t.Run("text columns are not checked", func(t *testing.T) {
		df, err := Read(strings.NewReader("rank_2020,album,artist_gender\n1,Blue 42,Female\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, df.Nrow())
	})

	t.Run("over http", func(t *testing.T) {
		srv := serve(t, http.StatusOK, strings.Replace(sampleCSV, "Abbey Road,5,", "Abbey Road,five,", 1))
		_, err := Load(context.Background(), srv.URL, WithHTTPClient(srv.Client()))
		assert.True(t, errors.Is(err, ErrDataUnavailable))
	})
}
