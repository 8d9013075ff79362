package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"albumrank/pkg/album"
	"albumrank/pkg/config"
	"albumrank/pkg/data"
	"albumrank/pkg/dataprep"
	"albumrank/pkg/model"
	"albumrank/pkg/regression"
	"albumrank/pkg/stats"

	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "sort_name,clean_name,album,rank_2020,release_year,peak_billboard_position,spotify_popularity,artist_member_count,artist_gender,artist_birth_year_sum,genre\n"

// syntheticCSV builds n ranked albums with a few missing popularity scores,
// two compilations without artist gender and one unranked album.
func syntheticCSV(n int, seed int64) (string, int) {
	rnd := rand.New(rand.NewSource(seed))
	genders := []string{"Female", "Male", "Male/Female"}
	var b strings.Builder
	b.WriteString(header)
	missing := 0
	for i := range n {
		year := 1955 + rnd.Intn(60)
		peak := 1 + rnd.Intn(200)
		members := 1 + rnd.Intn(5)
		birth := float64(year) - 20 - 15*rnd.Float64()
		pop := fmt.Sprintf("%.0f", 20+0.4*float64(year-1955)+10*rnd.Float64())
		if i%9 == 4 {
			pop = "NA"
			missing++
		}
		rank := 250 + 2*float64(year-1985) + 0.5*float64(peak) + 40*rnd.NormFloat64()
		fmt.Fprintf(&b, "artist%d,Artist %d,Album %d,%.0f,%d,%d,%s,%d,%s,%.1f,Rock\n",
			i, i, i, rank, year, peak, pop, members, genders[rnd.Intn(3)], birth*float64(members))
	}
	b.WriteString("various,Various Artists,Hits,12,1980,5,55,NA,,NA,Mixed\n")
	b.WriteString("various,Various Artists,More Hits,480,1990,90,,NA,NA,NA,Mixed\n")
	b.WriteString("unranked,Someone,Lost Album,,1975,30,40,1,Male,1950,Rock\n")
	return b.String(), missing
}

func serveCSV(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(source string) *config.Config {
	cfg := config.Default()
	cfg.Source = source
	cfg.Imputer.Trees = 20
	cfg.Imputer.MaxIterations = 4
	cfg.Imputer.Seed = 5
	return &cfg
}

func TestAnalyze(t *testing.T) {
	body, missing := syntheticCSV(80, 1)
	srv := serveCSV(t, body)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	s, err := Analyze(context.Background(), testConfig(srv.URL), logger, data.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = uuid.Parse(s.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 83, s.Raw.Nrow())
	assert.Equal(t, album.Projected, s.Prepared.Names())
	assert.Equal(t, 82, s.Prepared.Nrow())
	for _, r := range dataprep.Floats(s.Prepared, album.Rank2020) {
		require.False(t, math.IsNaN(r))
	}
	require.NotNil(t, s.Description)
	assert.Equal(t, 2, s.Description.MissingIn(album.ArtistGender))

	assert.Equal(t, 2, s.GenderDropped)
	assert.Equal(t, 80, s.Data.Nrow())
	for _, g := range dataprep.Categories(s.Data, album.ArtistGender) {
		require.NotEmpty(t, g)
	}

	assert.Equal(t, missing, s.Imputation.Missing)
	assert.Equal(t, 0, stats.CountNaN(dataprep.Floats(s.Data, album.SpotifyPopularity)))
	assert.Equal(t, int64(5), s.Seed)

	simple, complex := s.Fits[SimpleModel], s.Fits[ComplexModel]
	require.NotNil(t, simple)
	require.NotNil(t, complex)
	assert.Equal(t, 4, simple.P)
	assert.Equal(t, 8, complex.P)
	assert.Contains(t, complex.Names(), "artist_gender[Male]")
	assert.Contains(t, complex.Names(), "artist_gender[Male/Female]")
	span, ok := complex.Term(album.ArtistGender)
	require.True(t, ok)
	assert.Equal(t, "Female", span.Reference)

	assert.Equal(t, complex.P-simple.P, s.Comparison.DFNum)
	assert.Contains(t, []string{SimpleModel, ComplexModel}, s.Comparison.Preferred)
	for _, name := range []string{SimpleModel, ComplexModel} {
		d := s.Diagnostics[name]
		require.NotNil(t, d, name)
		assert.NotNil(t, d.Normality, name)
		assert.Len(t, d.Cooks, 80)
	}

	for _, step := range []string{"load", "filter", "describe", "impute", "fit", "evaluate"} {
		assert.Contains(t, logs.String(), "step="+step)
	}
	assert.Contains(t, logs.String(), "run="+s.RunID)
}

func TestAnalyzeIsReproducibleWithSeed(t *testing.T) {
	body, _ := syntheticCSV(60, 2)
	srv := serveCSV(t, body)
	cfg := testConfig(srv.URL)
	a, err := Analyze(context.Background(), cfg, nil, data.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	b, err := Analyze(context.Background(), cfg, nil, data.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t,
		dataprep.Floats(a.Data, album.SpotifyPopularity),
		dataprep.Floats(b.Data, album.SpotifyPopularity))
	assert.Equal(t, a.Comparison, b.Comparison)
}

// TestAnalyzeRecoversExactRelationship runs ten complete rows where
// rank = 100 - 2·(release_year - 1960).
func TestAnalyzeRecoversExactRelationship(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	peaks := []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	pops := []int{50, 62, 47, 71, 55, 68, 49, 60, 73, 52}
	members := []int{1, 4, 2, 1, 3, 1, 5, 2, 1, 4}
	births := []float64{1931, 1944, 1929, 1950, 1938, 1947, 1935, 1941, 1952, 1933}
	genders := []string{"Male", "Female", "Male", "Male/Female", "Female", "Male", "Female", "Male/Female", "Male", "Female"}
	for i := range 10 {
		fmt.Fprintf(&b, "a%d,A%d,B%d,%d,%d,%d,%d,%d,%s,%.0f,Rock\n",
			i, i, i, 100-2*i, 1960+i, peaks[i], pops[i], members[i], genders[i], births[i]*float64(members[i]))
	}
	srv := serveCSV(t, b.String())

	s, err := Analyze(context.Background(), testConfig(srv.URL), nil, data.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c, ok := s.Fits[SimpleModel].Coefficient(album.ReleaseYear)
	require.True(t, ok)
	assert.InDelta(t, -2.0, c.Estimate, 1e-6)
	for _, d := range s.Diagnostics[SimpleModel].Cooks {
		assert.Less(t, d, 1.0)
	}
	assert.Empty(t, s.Diagnostics[SimpleModel].Influential)
	assert.Nil(t, s.Diagnostics[SimpleModel].Normality)
	assert.Equal(t, 0, s.Imputation.Missing)
}

func TestAnalyzeFailures(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	_, err := Analyze(context.Background(), testConfig(notFound.URL), nil, data.WithHTTPClient(notFound.Client()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrDataUnavailable))

	srv := serveCSV(t, "sort_name,rank_2020\nx,1\n")
	_, err = Analyze(context.Background(), testConfig(srv.URL), nil, data.WithHTTPClient(srv.Client()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataprep.ErrMissingColumn))
	assert.True(t, strings.HasPrefix(err.Error(), "load: "))
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	p := NewPipeline(nil,
		Step{Name: "one", Run: func(context.Context, *State) error { ran = append(ran, "one"); return nil }},
		Step{Name: "two", Run: func(context.Context, *State) error { ran = append(ran, "two"); return boom }},
		Step{Name: "three", Run: func(context.Context, *State) error { ran = append(ran, "three"); return nil }},
	)
	err := p.Run(context.Background(), &State{})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, "two: boom", err.Error())
	assert.Equal(t, []string{"one", "two"}, ran)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Run(ctx, &State{}), context.Canceled)
}

func TestTerms(t *testing.T) {
	assert.Len(t, SimpleTerms(), 3)
	complex := ComplexTerms()
	require.Len(t, complex, 6)
	assert.Equal(t, SimpleTerms(), complex[:3])
}

func TestSourceSchema(t *testing.T) {
	s := SourceSchema()
	require.Equal(t, len(s.FeatureNames), len(s.Types))
	body, _ := syntheticCSV(5, 3)
	df, err := data.Read(strings.NewReader(body))
	require.NoError(t, err)
	assert.NoError(t, s.Validate(df))

	text := make([]string, df.Nrow())
	for i := range text {
		text[i] = "unranked"
	}
	err = s.Validate(df.Mutate(series.New(text, series.String, album.Rank2020)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column rank_2020 has type string")

	df = df.Drop(album.ReleaseYear)
	assert.True(t, errors.Is(s.Validate(df), dataprep.ErrMissingColumn))
}

func TestForestOptions(t *testing.T) {
	ic := config.ImputerConfig{Trees: 40, MinLeaf: 3, MaxDepth: 6, Mtry: 2, Workers: 4}
	rf := model.NewRandomForestRegressor(ForestOptions(ic, 9)...)
	assert.Equal(t, 40, rf.NEstimators)
	assert.Equal(t, 3, rf.MinSamplesLeaf)
	assert.Equal(t, 6, rf.MaxDepth)
	assert.Equal(t, 2, rf.MaxFeatures)
	assert.Equal(t, 4, rf.Workers)
	assert.Equal(t, int64(9), rf.RandomState)

	defaults := model.NewRandomForestRegressor()
	rf = model.NewRandomForestRegressor(ForestOptions(config.ImputerConfig{Trees: 10, MinLeaf: 5}, 1)...)
	assert.Equal(t, 0, rf.MaxDepth)
	assert.Equal(t, 0, rf.MaxFeatures)
	assert.Equal(t, defaults.Workers, rf.Workers)
}

func TestFitReportsSimpleModelFirst(t *testing.T) {
	body, _ := syntheticCSV(20, 4)
	df, err := data.Read(strings.NewReader(body))
	require.NoError(t, err)
	df, err = dataprep.Prepare(df)
	require.NoError(t, err)
	// Missing popularity scores make both fits fail.
	for range 20 {
		s := &State{Data: df}
		err := fit(context.Background(), s)
		require.Error(t, err)
		assert.True(t, errors.Is(err, regression.ErrMissingValues))
		assert.True(t, strings.HasPrefix(err.Error(), SimpleModel+" model: "), err.Error())
	}
}
