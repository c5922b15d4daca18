package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a supervised model that can be re-instantiated with the same
// hyperparameters. Cross-validation fits one clone per fold, so the
// estimator passed in by the caller is never fitted by the evaluation code.
type Estimator interface {
	Fitter
	Predictor

	// Clone returns a new, unfitted estimator with the same hyperparameters.
	Clone() Estimator
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
}
