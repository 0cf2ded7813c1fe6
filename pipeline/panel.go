package pipeline

import (
	"encoding/gob"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/sklearn/ensemble"
	"github.com/YuminosukeSato/aurora/sklearn/linear_model"
	"github.com/YuminosukeSato/aurora/sklearn/neighbors"
	"github.com/YuminosukeSato/aurora/sklearn/svm"
	"github.com/YuminosukeSato/aurora/sklearn/tree"
)

// Candidate is one entry of the model panel. New returns a fresh, unfitted
// regressor so every run starts from the same state.
type Candidate struct {
	Name string
	New  func() model.Regressor
}

// Panel names, in evaluation order.
const (
	LinearRegressionName = "Linear Regression"
	RidgeName            = "Ridge"
	LassoName            = "Lasso"
	KNeighborsName       = "K-Neighbors Regressor"
	DecisionTreeName     = "Decision Tree"
	RandomForestName     = "Random Forest"
	GradientBoostingName = "Gradient Boosting"
	AdaBoostName         = "AdaBoost"
	SVRName              = "SVR"
)

func init() {
	// The model artifact stores the winner behind the model.Regressor
	// interface, which gob resolves by registered concrete type.
	gob.Register(&linear_model.LinearRegression{})
	gob.Register(&linear_model.Ridge{})
	gob.Register(&linear_model.Lasso{})
	gob.Register(&neighbors.KNeighborsRegressor{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&ensemble.GradientBoostingRegressor{})
	gob.Register(&ensemble.AdaBoostRegressor{})
	gob.Register(&svm.SVR{})
}

// DefaultPanel returns the nine candidates with library defaults. seed drives
// the stochastic ones (forest bootstrap and AdaBoost resampling).
func DefaultPanel(seed uint64) []Candidate {
	return []Candidate{
		{LinearRegressionName, func() model.Regressor { return linear_model.NewLinearRegression() }},
		{RidgeName, func() model.Regressor { return linear_model.NewRidge() }},
		{LassoName, func() model.Regressor { return linear_model.NewLasso() }},
		{KNeighborsName, func() model.Regressor { return neighbors.NewKNeighborsRegressor() }},
		{DecisionTreeName, func() model.Regressor { return tree.NewDecisionTreeRegressor() }},
		{RandomForestName, func() model.Regressor {
			return ensemble.NewRandomForestRegressor(ensemble.WithForestRandomState(seed))
		}},
		{GradientBoostingName, func() model.Regressor { return ensemble.NewGradientBoostingRegressor() }},
		{AdaBoostName, func() model.Regressor {
			return ensemble.NewAdaBoostRegressor(ensemble.WithAdaBoostRandomState(seed))
		}},
		{SVRName, func() model.Regressor { return svm.NewSVR() }},
	}
}
