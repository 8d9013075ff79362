package model

// Regressor is a supervised model with a continuous response.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

var (
	_ Regressor = (*DecisionTreeRegressor)(nil)
	_ Regressor = (*RandomForestRegressor)(nil)
)
