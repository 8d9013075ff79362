package model

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"time"

	"albumrank/pkg/sample"

	"golang.org/x/sync/errgroup"
)

// RandomForestRegressor averages bagged regression trees.
type RandomForestRegressor struct {
	// Hyperparameters / options
	NEstimators    int
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int // 0 => max(1, p/3), the usual regression default
	Bootstrap      bool
	RandomState    int64
	Workers        int

	// Internal state
	Trees []*DecisionTreeRegressor
	inBag [][]bool
	oob   Score
}

// RandomForestOption functional config for RandomForestRegressor
type RandomForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithNodeSize(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}
func WithMtry(k int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}
func WithTreeDepth(d int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithSeed(seed int64) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}
func WithWorkers(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.Workers = n }
}

// NewRandomForestRegressor initializes the forest with sensible defaults.
func NewRandomForestRegressor(opts ...RandomForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:    100,
		MinSamplesLeaf: 5,
		Bootstrap:      true,
		RandomState:    time.Now().UnixNano(),
		Workers:        runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest. Tree i draws its bootstrap sample and feature
// subsets from seed RandomState+i, so a fixed seed gives identical forests
// no matter how the trees are scheduled.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return errors.New("randomforest: NEstimators must be positive")
	}
	mtry := rf.MaxFeatures
	if mtry <= 0 {
		mtry = max(1, len(X[0])/3)
	}

	rf.Trees = make([]*DecisionTreeRegressor, rf.NEstimators)
	rf.inBag = make([][]bool, rf.NEstimators)

	var g errgroup.Group
	g.SetLimit(max(rf.Workers, 1))
	for i := 0; i < rf.NEstimators; i++ {
		g.Go(func() error {
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			var idx []int
			var inBag []bool
			if rf.Bootstrap {
				idx, inBag = sample.Bootstrap(treeRand, n)
			} else {
				idx, inBag = sample.Identity(n)
			}

			tree := NewDecisionTreeRegressor(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesLeaf(rf.MinSamplesLeaf),
				WithMinSamplesSplit(2*rf.MinSamplesLeaf),
				WithMaxFeatures(mtry),
				WithRandomState(seed),
			)
			if err := tree.FitSample(X, y, idx); err != nil {
				return err
			}
			rf.Trees[i] = tree
			rf.inBag[i] = inBag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rf.oob = rf.computeOOB(X, y)
	return nil
}

// Predict returns the mean prediction over all trees.
func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i, x := range X {
		s := 0.0
		for _, t := range rf.Trees {
			s += t.PredictOne(x)
		}
		out[i] = s / float64(len(rf.Trees))
	}
	return out
}

// OOBError is the out-of-bag mean squared error of the last Fit. It is NaN
// without bootstrapping or when no row was ever out of bag.
func (rf *RandomForestRegressor) OOBError() float64 { return rf.oob.MSE }

// OOBScore is the full out-of-bag score of the last Fit.
func (rf *RandomForestRegressor) OOBScore() Score { return rf.oob }

// computeOOB predicts every row from the trees that did not see it.
func (rf *RandomForestRegressor) computeOOB(X [][]float64, y []float64) Score {
	if !rf.Bootstrap {
		return Evaluate(nil, nil)
	}
	sums := make([]float64, len(X))
	counts := make([]int, len(X))
	for t, tree := range rf.Trees {
		for _, i := range sample.OutOfBag(rf.inBag[t]) {
			sums[i] += tree.PredictOne(X[i])
			counts[i]++
		}
	}
	var yTrue, yPred []float64
	for i, c := range counts {
		if c == 0 {
			continue
		}
		yTrue = append(yTrue, y[i])
		yPred = append(yPred, sums[i]/float64(c))
	}
	return Evaluate(yTrue, yPred)
}
