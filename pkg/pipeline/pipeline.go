// Package pipeline chains the analysis stages: load, filter, describe,
// impute, fit and evaluate. Every stage runs once, in order, and the first
// error aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"albumrank/pkg/album"
	"albumrank/pkg/config"
	"albumrank/pkg/data"
	"albumrank/pkg/dataprep"
	"albumrank/pkg/diagnostics"
	"albumrank/pkg/evaluate"
	"albumrank/pkg/model"
	"albumrank/pkg/regression"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
)

// Model names used in reports and comparisons.
const (
	SimpleModel  = "simple"
	ComplexModel = "complex"
)

// SimpleTerms are the predictors of the simple model.
func SimpleTerms() []regression.Term {
	return []regression.Term{
		regression.NumericTerm(album.ReleaseYear),
		regression.NumericTerm(album.PeakBillboardPosition),
		regression.NumericTerm(album.SpotifyPopularity),
	}
}

// ComplexTerms extends SimpleTerms with the artist attributes.
func ComplexTerms() []regression.Term {
	return append(SimpleTerms(),
		regression.CategoricalTerm(album.ArtistGender),
		regression.NumericTerm(album.ArtistMemberCount),
		regression.NumericTerm(album.AverageBirthYear),
	)
}

// ImputePredictors are the columns the popularity score is imputed from.
var ImputePredictors = []string{album.ReleaseYear, album.PeakBillboardPosition, album.AverageBirthYear}

// State carries the dataset and every artifact between stages.
type State struct {
	RunID       string
	Config      *config.Config
	LoadOptions []data.Option

	Raw      dataframe.DataFrame // as loaded
	Prepared dataframe.DataFrame // ranked rows, ten columns
	Data     dataframe.DataFrame // after row drops and imputation

	Description   *diagnostics.Report
	GenderDropped int
	Seed          int64
	Imputation    dataprep.ImputationResult

	Fits        map[string]*regression.Fit
	Diagnostics map[string]*evaluate.Diagnostics
	Comparison  evaluate.Comparison
}

// Thresholds returns the evaluation thresholds of the run.
func (s *State) Thresholds() evaluate.Thresholds {
	e := s.Config.Evaluation
	return evaluate.Thresholds{
		Cook:        e.CookThreshold,
		VIFModerate: e.VIFModerate,
		VIFHigh:     e.VIFHigh,
		Alpha:       e.Alpha,
	}
}

// Step is one named stage.
type Step struct {
	Name string
	Run  func(ctx context.Context, s *State) error
}

// Pipeline chains multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

func NewPipeline(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Run executes every step in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context, s *State) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		p.logger.Debug("step started", "step", step.Name)
		if err := step.Run(ctx, s); err != nil {
			p.logger.Error("step failed", "step", step.Name, "error", err)
			return fmt.Errorf("%s: %w", step.Name, err)
		}
		p.logger.Info("step finished", "step", step.Name,
			"rows", s.rows(), "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func (s *State) rows() int {
	switch {
	case s.Data.Ncol() > 0:
		return s.Data.Nrow()
	case s.Prepared.Ncol() > 0:
		return s.Prepared.Nrow()
	}
	return s.Raw.Nrow()
}

// Steps returns the analysis stages.
func Steps(logger *slog.Logger) []Step {
	return []Step{
		{Name: "load", Run: load},
		{Name: "filter", Run: filter},
		{Name: "describe", Run: func(ctx context.Context, s *State) error { return describe(logger, s) }},
		{Name: "impute", Run: func(ctx context.Context, s *State) error { return impute(logger, s) }},
		{Name: "fit", Run: fit},
		{Name: "evaluate", Run: evaluateFits},
	}
}

// Analyze runs the full analysis with cfg.
func Analyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...data.Option) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{RunID: uuid.New().String(), Config: cfg, LoadOptions: opts}
	logger = logger.With("run", s.RunID)
	if err := NewPipeline(logger, Steps(logger)...).Run(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ---------------------------
// Stages
// ---------------------------

func load(ctx context.Context, s *State) error {
	opts := append([]data.Option{data.WithTimeout(s.Config.FetchTimeout)}, s.LoadOptions...)
	df, err := data.Load(ctx, s.Config.Source, opts...)
	if err != nil {
		return err
	}
	if err := SourceSchema().Validate(df); err != nil {
		return err
	}
	s.Raw = df
	return nil
}

func filter(_ context.Context, s *State) error {
	df, err := dataprep.Prepare(s.Raw)
	if err != nil {
		return err
	}
	s.Prepared = df
	return nil
}

// describe reports on the prepared frame, then applies the fixed row-drop
// rule for albums without a single attributable artist.
func describe(logger *slog.Logger, s *State) error {
	r, err := diagnostics.Describe(s.Prepared, album.Numeric, album.Categorical)
	if err != nil {
		return err
	}
	s.Description = r
	df, dropped, err := dataprep.DropMissingCategory(s.Prepared, album.ArtistGender)
	if err != nil {
		return err
	}
	s.Data, s.GenderDropped = df, dropped
	logger.Info("dropped rows without artist gender", "rows", dropped)
	return nil
}

func impute(logger *slog.Logger, s *State) error {
	ic := s.Config.Imputer
	s.Seed = ic.Seed
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
		logger.Warn("imputer seed not set; results are not reproducible", "seed", s.Seed)
	}
	imputer := model.NewIterativeImputer(ic.MaxIterations, ForestOptions(ic, s.Seed)...)
	df, res, err := dataprep.ImputeColumn(s.Data, album.SpotifyPopularity, ImputePredictors, imputer)
	if err != nil {
		return err
	}
	if !res.Converged {
		logger.Warn("imputation did not converge within the iteration cap",
			"column", res.Column, "iterations", res.Iterations)
	}
	logger.Info("imputed missing values", "column", res.Column, "rows", res.Missing,
		"iterations", res.Iterations, "oob_mse", res.OOBError)
	s.Data, s.Imputation = df, res
	return nil
}

// ForestOptions maps the imputer settings onto forest options. Zero values
// keep the forest defaults.
func ForestOptions(ic config.ImputerConfig, seed int64) []model.RandomForestOption {
	opts := []model.RandomForestOption{
		model.WithNEstimators(ic.Trees),
		model.WithNodeSize(ic.MinLeaf),
		model.WithTreeDepth(ic.MaxDepth),
		model.WithMtry(ic.Mtry),
		model.WithSeed(seed),
	}
	if ic.Workers > 0 {
		opts = append(opts, model.WithWorkers(ic.Workers))
	}
	return opts
}

func fit(_ context.Context, s *State) error {
	terms := map[string][]regression.Term{
		SimpleModel:  SimpleTerms(),
		ComplexModel: ComplexTerms(),
	}
	s.Fits = map[string]*regression.Fit{}
	for _, name := range []string{SimpleModel, ComplexModel} {
		f, err := regression.OLS(s.Data, album.Rank2020, terms[name])
		if err != nil {
			return fmt.Errorf("%s model: %w", name, err)
		}
		s.Fits[name] = f
	}
	return nil
}

func evaluateFits(_ context.Context, s *State) error {
	th := s.Thresholds()
	s.Diagnostics = map[string]*evaluate.Diagnostics{}
	for _, name := range []string{SimpleModel, ComplexModel} {
		d, err := evaluate.Diagnose(s.Fits[name], th)
		if err != nil {
			return fmt.Errorf("%s model: %w", name, err)
		}
		s.Diagnostics[name] = d
	}
	c, err := evaluate.Compare(SimpleModel, s.Fits[SimpleModel], ComplexModel, s.Fits[ComplexModel], th.Alpha)
	if err != nil {
		return err
	}
	s.Comparison = c
	return nil
}
