package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"albumrank/pkg/sample"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeRegressor is a CART-style regression tree that splits on the
// largest reduction in squared error.
type DecisionTreeRegressor struct {
	// Hyperparameters / options
	MaxDepth        int   // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int   // minimum samples to attempt a split
	MinSamplesLeaf  int   // minimum samples required in each leaf
	MaxFeatures     int   // 0 => all features, >0 => features sampled per node
	RandomState     int64 // seed for feature subsampling

	root      *rtNode
	nFeatures int
}

type rtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	left      *rtNode
	right     *rtNode

	n     int
	value float64 // mean response of the samples reaching this node
}

// Option functional config
type Option func(*DecisionTreeRegressor)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a tree with sensible defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ---------------------------
// Public API
// ---------------------------

// Fit trains the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	idx, _ := sample.Identity(len(X))
	return t.FitSample(X, y, idx)
}

// FitSample trains the tree on the rows listed in idx. Repeated indices
// count as repeated observations, which is how bootstrap samples are fed in.
func (t *DecisionTreeRegressor) FitSample(X [][]float64, y []float64, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
		for _, v := range X[i] {
			if math.IsNaN(v) {
				return errors.New("dtree: NaN in X")
			}
		}
		if math.IsNaN(y[i]) {
			return errors.New("dtree: NaN in y")
		}
	}

	t.nFeatures = p
	rnd := rand.New(rand.NewSource(t.RandomState))
	work := append([]int(nil), idx...)
	t.root = t.buildNode(X, y, work, 0, rnd)
	return nil
}

// Predict returns the leaf mean reached by each row of X.
func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.PredictOne(X[i])
	}
	return out
}

// PredictOne predicts a single row. An untrained tree predicts NaN.
func (t *DecisionTreeRegressor) PredictOne(x []float64) float64 {
	node := t.root
	if node == nil {
		return math.NaN()
	}
	for !node.isLeaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// Leaves counts the terminal nodes.
func (t *DecisionTreeRegressor) Leaves() int { return countLeaves(t.root) }

// ---------------------------
// Internal builders & helpers
// ---------------------------

type split struct {
	gain      float64
	feature   int
	threshold float64
	pos       int // rows [0,pos) of the sorted order go left
}

// pair is a named type for a value and its original index.
type pair struct {
	v float64
	i int
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth int, rnd *rand.Rand) *rtNode {
	sum, sumSq := 0.0, 0.0
	for _, ii := range idx {
		sum += y[ii]
		sumSq += y[ii] * y[ii]
	}
	n := float64(len(idx))
	node := &rtNode{n: len(idx), value: sum / n, isLeaf: true}

	if len(idx) < t.MinSamplesSplit || len(idx) < 2*max(t.MinSamplesLeaf, 1) {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}
	parentSSE := sumSq - sum*sum/n
	if parentSSE <= 1e-12 {
		return node
	}

	best := split{feature: -1}
	var bestOrder []pair
	for _, f := range sample.Features(rnd, t.nFeatures, t.MaxFeatures) {
		s, order := t.bestSplitForFeature(X, y, idx, f, sum, sumSq, parentSSE)
		if s.feature >= 0 && s.gain > best.gain {
			best, bestOrder = s, order
		}
	}
	if best.feature < 0 {
		return node
	}

	leftIdx := make([]int, 0, best.pos)
	rightIdx := make([]int, 0, len(idx)-best.pos)
	for k, pv := range bestOrder {
		if k < best.pos {
			leftIdx = append(leftIdx, pv.i)
		} else {
			rightIdx = append(rightIdx, pv.i)
		}
	}

	node.isLeaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.left = t.buildNode(X, y, leftIdx, depth+1, rnd)
	node.right = t.buildNode(X, y, rightIdx, depth+1, rnd)
	return node
}

// bestSplitForFeature scans the midpoints between distinct sorted values of
// feature f using running sums, so each candidate costs O(1).
func (t *DecisionTreeRegressor) bestSplitForFeature(X [][]float64, y []float64, idx []int, f int, sum, sumSq, parentSSE float64) (split, []pair) {
	result := split{feature: -1}
	order := make([]pair, len(idx))
	for k, ii := range idx {
		order[k] = pair{X[ii][f], ii}
	}
	sort.Slice(order, func(a, b int) bool { return order[a].v < order[b].v })

	minLeaf := max(t.MinSamplesLeaf, 1)
	n := len(order)
	lSum, lSq := 0.0, 0.0
	for s := 1; s < n; s++ {
		yv := y[order[s-1].i]
		lSum += yv
		lSq += yv * yv
		if order[s].v == order[s-1].v {
			continue
		}
		if s < minLeaf || n-s < minLeaf {
			continue
		}
		nl, nr := float64(s), float64(n-s)
		rSum, rSq := sum-lSum, sumSq-lSq
		sse := (lSq - lSum*lSum/nl) + (rSq - rSum*rSum/nr)
		gain := parentSSE - sse
		if gain > result.gain+1e-12 {
			result = split{
				gain:      gain,
				feature:   f,
				threshold: (order[s-1].v + order[s].v) / 2,
				pos:       s,
			}
		}
	}
	return result, order
}

func countLeaves(n *rtNode) int {
	if n == nil {
		return 0
	}
	if n.isLeaf {
		return 1
	}
	return countLeaves(n.left) + countLeaves(n.right)
}
