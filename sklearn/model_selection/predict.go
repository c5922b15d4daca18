package model_selection

import (
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/core/parallel"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// CrossValPredict returns out-of-fold predictions: every sample is
// predicted by the clone that did not see it during Fit. cv must produce
// a partition, so repeated splitters are rejected.
func CrossValPredict(est model.Estimator, X, y mat.Matrix, cv Splitter, opts ...Option) (*mat.Dense, error) {
	cfg := newCVConfig(opts)
	if est == nil {
		return nil, errors.NewValueError("CrossValPredict", "estimator must not be nil")
	}
	if cv == nil {
		return nil, errors.NewValueError("CrossValPredict", "cv splitter must not be nil")
	}
	nSamples, _, err := model.CheckXY("CrossValPredict", X, y)
	if err != nil {
		return nil, err
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, errors.Wrap(err, "CrossValPredict: split")
	}

	seen := make([]int, nSamples)
	for _, f := range folds {
		for _, idx := range f.TestIndices {
			seen[idx]++
		}
	}
	for _, n := range seen {
		if n != 1 {
			return nil, errors.NewValueError("CrossValPredict",
				"cross_val_predict only works for splitters whose test sets partition the samples")
		}
	}

	logger := cfg.logger.With(
		log.ComponentKey, "model_selection",
		log.OperationKey, log.OperationPredict,
		log.EstimatorKey, model.Name(est),
	)

	pred := mat.NewDense(nSamples, 1, nil)
	err = parallel.ForEach(len(folds), cfg.nJobs, func(i int) error {
		fold := folds[i]
		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		testX, _ := extractSubset(X, y, fold.TestIndices)

		fitted, _, err := fitClone(est, trainX, trainY, i)
		if err != nil {
			logger.Error("fold failed", log.ErrAttrKey, err, log.FoldKey, i, log.ErrorCodeKey, log.ErrorFoldFailed)
			return err
		}
		var out mat.Matrix
		err = errors.SafeExecute("predict", func() error {
			var err error
			out, err = fitted.Predict(testX)
			return err
		})
		if err != nil {
			return errors.NewFoldError(i, "predict", err)
		}
		// 各テストサンプルはちょうど1つのフォールドに属するので書き込みは競合しない
		for j, idx := range fold.TestIndices {
			pred.Set(idx, 0, out.At(j, 0))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pred, nil
}
