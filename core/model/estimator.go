package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列行列
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の列行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は予測の決定係数（R²）を返す
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は候補パネルに並ぶ回帰モデルが満たすインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Regressor
	// Weights は学習された重み（係数）を返す
	Weights() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}
