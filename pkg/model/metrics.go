package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Score summarises how closely predictions track held-out responses.
type Score struct {
	N    int
	MSE  float64
	RMSE float64
	MAE  float64
	R2   float64 // 0 when the responses are constant
}

// Evaluate scores yPred against yTrue. An empty input scores NaN.
func Evaluate(yTrue, yPred []float64) Score {
	if len(yTrue) == 0 {
		nan := math.NaN()
		return Score{MSE: nan, RMSE: nan, MAE: nan, R2: nan}
	}
	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot, abs float64
	for i, y := range yTrue {
		r := y - yPred[i]
		ssRes += r * r
		abs += math.Abs(r)
		ssTot += (y - mean) * (y - mean)
	}
	n := float64(len(yTrue))
	s := Score{N: len(yTrue), MSE: ssRes / n, MAE: abs / n}
	s.RMSE = math.Sqrt(s.MSE)
	if ssTot > 0 {
		s.R2 = 1 - ssRes/ssTot
	}
	return s
}

// MSE is the mean squared error of yPred.
func MSE(yTrue, yPred []float64) float64 { return Evaluate(yTrue, yPred).MSE }
