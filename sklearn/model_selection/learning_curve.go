package model_selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/core/parallel"
	"github.com/YuminosukeSato/scieval/metrics"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LearningCurveResult holds scores for growing training set sizes.
// TrainScores[i][f] is the score of fold f when trained on TrainSizes[i]
// samples, measured on those same samples; TestScores[i][f] is measured on
// the fold's test set.
type LearningCurveResult struct {
	TrainSizes  []int
	TrainScores [][]float64
	TestScores  [][]float64
}

// TrainMean returns the mean training score per size. A size with a failed
// fold has a NaN mean.
func (r *LearningCurveResult) TrainMean() []float64 { return rowMeans(r.TrainScores) }

// TrainStd returns the population standard deviation of training scores per size.
func (r *LearningCurveResult) TrainStd() []float64 { return rowStds(r.TrainScores) }

// TestMean returns the mean validation score per size.
func (r *LearningCurveResult) TestMean() []float64 { return rowMeans(r.TestScores) }

// TestStd returns the population standard deviation of validation scores per size.
func (r *LearningCurveResult) TestStd() []float64 { return rowStds(r.TestScores) }

func rowMeans(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = stat.Mean(row, nil)
	}
	return out
}

func rowStds(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		_, out[i] = stat.PopMeanStdDev(row, nil)
	}
	return out
}

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}

// DefaultTrainSizes is linspace(0.1, 1.0, 5), scikit-learn's default.
func DefaultTrainSizes() []float64 {
	return Linspace(0.1, 1.0, 5)
}

// LearningCurve fits clones of est on the first n training samples of
// every fold for each n derived from trainSizes.
//
// When every value of trainSizes is at most 1 they are fractions of the
// first fold's training set size (floored, at least 1); otherwise they are
// absolute sample counts. Duplicate sizes are dropped with a warning.
//
// A failed fit or score is recorded as NaN with a FitFailedWarning, so
// small training sets holding a single class do not abort the curve. An
// error is returned only when every fit failed.
func LearningCurve(est model.Estimator, X, y mat.Matrix, trainSizes []float64, cv Splitter, scoring string, opts ...Option) (*LearningCurveResult, error) {
	cfg := newCVConfig(opts)
	if est == nil {
		return nil, errors.NewValueError("LearningCurve", "estimator must not be nil")
	}
	if cv == nil {
		return nil, errors.NewValueError("LearningCurve", "cv splitter must not be nil")
	}
	if _, _, err := model.CheckXY("LearningCurve", X, y); err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(scoring)
	if err != nil {
		return nil, err
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, errors.Wrap(err, "LearningCurve: split")
	}
	if len(folds) == 0 {
		return nil, errors.NewValueError("LearningCurve", "splitter produced no folds")
	}
	sizes, err := translateTrainSizes(trainSizes, len(folds[0].TrainIndices))
	if err != nil {
		return nil, err
	}

	logger := cfg.logger.With(
		log.ComponentKey, "model_selection",
		log.OperationKey, log.OperationLearningCurve,
		log.EstimatorKey, model.Name(est),
		log.ScoringKey, scoring,
	)
	logger.Debug("learning curve started", log.FoldsKey, len(folds), "train_sizes", fmt.Sprint(sizes))

	nFolds := len(folds)
	result := &LearningCurveResult{
		TrainSizes:  sizes,
		TrainScores: make([][]float64, len(sizes)),
		TestScores:  make([][]float64, len(sizes)),
	}
	for i := range sizes {
		result.TrainScores[i] = make([]float64, nFolds)
		result.TestScores[i] = make([]float64, nFolds)
	}

	// ジョブ番号 = fold * len(sizes) + size index
	fitErrs := make([]error, nFolds*len(sizes))
	err = parallel.ForEach(nFolds*len(sizes), cfg.nJobs, func(job int) error {
		f, s := job/len(sizes), job%len(sizes)
		fold := folds[f]
		n := sizes[s]
		if n > len(fold.TrainIndices) {
			n = len(fold.TrainIndices)
		}
		trainX, trainY := extractSubset(X, y, fold.TrainIndices[:n])
		testX, testY := extractSubset(X, y, fold.TestIndices)

		fitted, _, err := fitClone(est, trainX, trainY, f)
		if err != nil {
			fitErrs[job] = err
			warnFoldFailed(logger, err, log.FoldKey, f, log.TrainSizeKey, n)
			result.TrainScores[s][f] = math.NaN()
			result.TestScores[s][f] = math.NaN()
			return nil
		}
		trainScore, err := scoreOrNaN(logger, scorer, fitted, trainX, trainY, f, log.TrainSizeKey, n)
		if err != nil {
			return err
		}
		testScore, err := scoreOrNaN(logger, scorer, fitted, testX, testY, f, log.TrainSizeKey, n)
		if err != nil {
			return err
		}
		result.TrainScores[s][f] = trainScore
		result.TestScores[s][f] = testScore
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := allFitsFailed(fitErrs); err != nil {
		return nil, err
	}
	return result, nil
}

// translateTrainSizes converts relative or absolute sizes into sorted,
// unique sample counts in [1, nMax].
func translateTrainSizes(trainSizes []float64, nMax int) ([]int, error) {
	if len(trainSizes) == 0 {
		return nil, errors.NewValidationError("train_sizes", "must not be empty", trainSizes)
	}
	if nMax < 1 {
		return nil, errors.NewValueError("LearningCurve", "first fold has no training samples")
	}

	relative := floats.Max(trainSizes) <= 1
	abs := make([]int, 0, len(trainSizes))
	for _, v := range trainSizes {
		if math.IsNaN(v) || v <= 0 {
			return nil, errors.NewValidationError("train_sizes", "values must be positive", v)
		}
		if relative {
			n := int(math.Floor(v * float64(nMax)))
			if n < 1 {
				n = 1
			}
			abs = append(abs, n)
			continue
		}
		if v != math.Trunc(v) || v > float64(nMax) {
			return nil, errors.NewValidationError("train_sizes",
				fmt.Sprintf("absolute sizes must be integers in [1, %d]", nMax), v)
		}
		abs = append(abs, int(v))
	}

	sort.Ints(abs)
	unique := abs[:1]
	for _, n := range abs[1:] {
		if n != unique[len(unique)-1] {
			unique = append(unique, n)
		}
	}
	if len(unique) != len(abs) {
		errors.Warn(errors.NewSplitWarning("LearningCurve", fmt.Sprintf(
			"removed duplicate training set sizes; %d of %d remain", len(unique), len(abs))))
	}
	return unique, nil
}
