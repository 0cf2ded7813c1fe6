package model

import "gonum.org/v1/gonum/mat"

// Transformer は行列から行列への前処理。統計量は Fit に渡した行から学習し、
// Transform はそれを再利用するだけで状態を変えない
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer は変換を元のスケールに戻せる Transformer
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
