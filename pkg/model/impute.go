package model

import (
	"errors"
	"math"
)

// ErrIncompleteCovariates is returned when a predictor column has missing
// values. Only the target column may be incomplete.
var ErrIncompleteCovariates = errors.New("imputer: predictor columns contain missing values")

// IterativeImputer fills one column with random-forest predictions in the
// style of missForest: start from the column mean, refit and re-predict,
// and stop when the change between iterations stops shrinking.
type IterativeImputer struct {
	MaxIter int
	Forest  []RandomForestOption
}

// Imputation is the outcome of IterativeImputer.Impute.
type Imputation struct {
	Values     []float64 // completed target column
	Imputed    []int     // rows whose value was filled
	Iterations int       // iterations whose estimate was kept
	Converged  bool      // false when MaxIter was reached first
	Changes    []float64 // normalised squared change of every iteration run
	OOBError   float64   // out-of-bag MSE of the forest behind the kept estimate
	OOBR2      float64   // out-of-bag R² of the same forest
}

// NewIterativeImputer returns an imputer capped at maxIter iterations that
// builds its forests with the given options.
func NewIterativeImputer(maxIter int, forest ...RandomForestOption) *IterativeImputer {
	if maxIter <= 0 {
		maxIter = 10
	}
	return &IterativeImputer{MaxIter: maxIter, Forest: forest}
}

// Impute fills the NaN entries of column target of X using every other
// column as a predictor. X is not modified.
func (im *IterativeImputer) Impute(X [][]float64, target int) (*Imputation, error) {
	if len(X) == 0 {
		return nil, errors.New("imputer: empty X")
	}
	p := len(X[0])
	if target < 0 || target >= p {
		return nil, errors.New("imputer: target column out of range")
	}
	if p < 2 {
		return nil, errors.New("imputer: need at least one predictor column")
	}

	n := len(X)
	predictors := make([][]float64, n)
	current := make([]float64, n)
	var missing, observed []int
	for i, row := range X {
		if len(row) != p {
			return nil, errors.New("imputer: inconsistent number of columns")
		}
		pr := make([]float64, 0, p-1)
		for j, v := range row {
			if j == target {
				continue
			}
			if math.IsNaN(v) {
				return nil, ErrIncompleteCovariates
			}
			pr = append(pr, v)
		}
		predictors[i] = pr
		current[i] = row[target]
		if math.IsNaN(row[target]) {
			missing = append(missing, i)
		} else {
			observed = append(observed, i)
		}
	}

	res := &Imputation{Values: current, Imputed: missing, Converged: true, OOBError: math.NaN(), OOBR2: math.NaN()}
	if len(missing) == 0 {
		return res, nil
	}
	if len(observed) == 0 {
		return nil, errors.New("imputer: target column has no observed values")
	}

	// Initial fill with the observed mean.
	mean := 0.0
	for _, i := range observed {
		mean += current[i]
	}
	mean /= float64(len(observed))
	for _, i := range missing {
		current[i] = mean
	}

	trainX := make([][]float64, len(observed))
	trainY := make([]float64, len(observed))
	for k, i := range observed {
		trainX[k] = predictors[i]
		trainY[k] = current[i]
	}
	queryX := make([][]float64, len(missing))
	for k, i := range missing {
		queryX[k] = predictors[i]
	}

	prevChange := math.Inf(1)
	res.Converged = false
	for iter := 0; iter < im.MaxIter; iter++ {
		rf := NewRandomForestRegressor(im.Forest...)
		rf.RandomState += int64(iter) * int64(max(rf.NEstimators, 1))
		if err := rf.Fit(trainX, trainY); err != nil {
			return nil, err
		}
		pred := rf.Predict(queryX)

		next := append([]float64(nil), current...)
		num, den := 0.0, 0.0
		for k, i := range missing {
			d := pred[k] - current[i]
			num += d * d
			next[i] = pred[k]
		}
		for _, v := range next {
			den += v * v
		}
		change := 0.0
		if den > 0 {
			change = num / den
		}
		res.Changes = append(res.Changes, change)

		if change > prevChange {
			// The estimate got worse; keep the previous one.
			res.Converged = true
			break
		}
		copy(current, next)
		res.Iterations = iter + 1
		oob := rf.OOBScore()
		res.OOBError, res.OOBR2 = oob.MSE, oob.R2
		prevChange = change
		if change == 0 {
			res.Converged = true
			break
		}
	}
	return res, nil
}
