package dataprep

import (
	"fmt"

	"albumrank/pkg/model"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrIncompleteCovariates mirrors model.ErrIncompleteCovariates so callers of
// this package need not import model.
var ErrIncompleteCovariates = model.ErrIncompleteCovariates

// ImputationResult summarises one ImputeColumn run.
type ImputationResult struct {
	Column     string
	Predictors []string
	Missing    int
	Rows       []int
	Iterations int
	Converged  bool
	Changes    []float64
	OOBError   float64
	OOBR2      float64
}

// ImputeColumn fills the missing entries of target from the predictor
// columns with an iterative random-forest imputer and returns the updated
// frame. Present values of target and every other column are unchanged.
func ImputeColumn(df dataframe.DataFrame, target string, predictors []string, imputer *model.IterativeImputer) (dataframe.DataFrame, ImputationResult, error) {
	columns := append([]string{target}, predictors...)
	X, err := FeatureSelect(df, columns)
	if err != nil {
		return dataframe.DataFrame{}, ImputationResult{}, err
	}
	res, err := imputer.Impute(X, 0)
	if err != nil {
		return dataframe.DataFrame{}, ImputationResult{}, fmt.Errorf("dataprep: impute %s: %w", target, err)
	}

	out := df.Mutate(series.New(res.Values, series.Float, target))
	if out.Err != nil {
		return dataframe.DataFrame{}, ImputationResult{}, fmt.Errorf("dataprep: impute %s: %w", target, out.Err)
	}
	return out, ImputationResult{
		Column:     target,
		Predictors: predictors,
		Missing:    len(res.Imputed),
		Rows:       res.Imputed,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Changes:    res.Changes,
		OOBError:   res.OOBError,
		OOBR2:      res.OOBR2,
	}, nil
}
