package model_selection

import (
	"math"
	"time"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/core/parallel"
	"github.com/YuminosukeSato/scieval/metrics"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Option configures CrossValScore, CrossValidate and LearningCurve.
type Option func(*cvConfig)

type cvConfig struct {
	nJobs            int
	logger           log.Logger
	returnTrainScore bool
}

func newCVConfig(opts []Option) *cvConfig {
	cfg := &cvConfig{nJobs: 1}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLogger()
	}
	return cfg
}

// WithNJobs sets how many folds are fitted concurrently. Negative values
// use every CPU. Results do not depend on nJobs.
func WithNJobs(nJobs int) Option {
	return func(c *cvConfig) {
		c.nJobs = nJobs
	}
}

// WithLogger sets the logger used for fold-level records.
func WithLogger(logger log.Logger) Option {
	return func(c *cvConfig) {
		c.logger = logger
	}
}

// WithReturnTrainScore also scores every fold on its own training data.
func WithReturnTrainScore(enabled bool) Option {
	return func(c *cvConfig) {
		c.returnTrainScore = enabled
	}
}

// CVResult stores cross-validation results. Slices are indexed by fold in
// the order the splitter produced them.
type CVResult struct {
	TestScores  []float64
	TrainScores []float64 // nil unless WithReturnTrainScore(true)
	FitTimes    []float64 // seconds
	ScoreTimes  []float64 // seconds
}

// Mean returns the mean test score.
func (r *CVResult) Mean() float64 {
	if len(r.TestScores) == 0 {
		return 0
	}
	return stat.Mean(r.TestScores, nil)
}

// Std returns the population standard deviation (ddof=0) of the test
// scores, as numpy's std does.
func (r *CVResult) Std() float64 {
	if len(r.TestScores) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(r.TestScores, nil)
	return std
}

// CrossValScore evaluates scoring on every fold of cv and returns one
// score per fold. The estimator itself is never fitted; each fold fits a
// fresh Clone.
func CrossValScore(est model.Estimator, X, y mat.Matrix, cv Splitter, scoring string, opts ...Option) ([]float64, error) {
	res, err := CrossValidate(est, X, y, cv, scoring, opts...)
	if err != nil {
		return nil, err
	}
	return res.TestScores, nil
}

// CrossValidate is CrossValScore with fit and score timings and, on
// request, training scores.
//
// A fold whose fit or scoring fails gets a NaN score and raises a
// FitFailedWarning; CrossValidate returns an error only when every fit
// failed, the scorer needs probabilities the estimator cannot give, or a
// binary-only scorer meets more than two classes.
func CrossValidate(est model.Estimator, X, y mat.Matrix, cv Splitter, scoring string, opts ...Option) (*CVResult, error) {
	cfg := newCVConfig(opts)
	if est == nil {
		return nil, errors.NewValueError("CrossValidate", "estimator must not be nil")
	}
	if cv == nil {
		return nil, errors.NewValueError("CrossValidate", "cv splitter must not be nil")
	}
	nSamples, nFeatures, err := model.CheckXY("CrossValidate", X, y)
	if err != nil {
		return nil, err
	}
	scorer, err := metrics.GetScorer(scoring)
	if err != nil {
		return nil, err
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, errors.Wrap(err, "CrossValidate: split")
	}

	logger := cfg.logger.With(
		log.ComponentKey, "model_selection",
		log.OperationKey, log.OperationCrossValScore,
		log.EstimatorKey, model.Name(est),
		log.ScoringKey, scoring,
	)
	logger.Debug("cross validation started",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.FoldsKey, len(folds),
		log.NJobsKey, parallel.Workers(cfg.nJobs),
	)

	nFolds := len(folds)
	result := &CVResult{
		TestScores: make([]float64, nFolds),
		FitTimes:   make([]float64, nFolds),
		ScoreTimes: make([]float64, nFolds),
	}
	if cfg.returnTrainScore {
		result.TrainScores = make([]float64, nFolds)
	}

	// fit の失敗は fold ごとに記録し、全 fold 失敗のときだけエラーにする
	fitErrs := make([]error, nFolds)
	err = parallel.ForEach(nFolds, cfg.nJobs, func(i int) error {
		fold := folds[i]
		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		testX, testY := extractSubset(X, y, fold.TestIndices)

		fitted, fitTime, err := fitClone(est, trainX, trainY, i)
		result.FitTimes[i] = fitTime
		if err != nil {
			fitErrs[i] = err
			warnFoldFailed(logger, err, log.FoldKey, i)
			result.TestScores[i] = math.NaN()
			if cfg.returnTrainScore {
				result.TrainScores[i] = math.NaN()
			}
			return nil
		}

		start := time.Now()
		score, err := scoreOrNaN(logger, scorer, fitted, testX, testY, i)
		if err != nil {
			return err
		}
		result.ScoreTimes[i] = time.Since(start).Seconds()
		result.TestScores[i] = score

		if cfg.returnTrainScore {
			trainScore, err := scoreOrNaN(logger, scorer, fitted, trainX, trainY, i)
			if err != nil {
				return err
			}
			result.TrainScores[i] = trainScore
		}

		logger.Debug("fold scored",
			log.FoldKey, i,
			log.TrainSizeKey, len(fold.TrainIndices),
			log.TestSizeKey, len(fold.TestIndices),
			log.ScoreKey, score,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := allFitsFailed(fitErrs); err != nil {
		return nil, err
	}

	logger.Debug("cross validation finished",
		log.MeanScoreKey, result.Mean(),
		log.StdScoreKey, result.Std(),
	)
	return result, nil
}

// fitClone fits a fresh clone of est and returns it with the fit time in
// seconds. Panics inside Fit are returned as errors.
func fitClone(est model.Estimator, X, y mat.Matrix, fold int) (model.Estimator, float64, error) {
	clone := est.Clone()
	start := time.Now()
	err := errors.SafeExecute("fit", func() error {
		return clone.Fit(X, y)
	})
	if err != nil {
		return nil, 0, errors.NewFoldError(fold, "fit", err)
	}
	return clone, time.Since(start).Seconds(), nil
}

// warnFoldFailed logs a failed fold and raises a FitFailedWarning. The
// caller records NaN in place of the fold's score.
func warnFoldFailed(logger log.Logger, err error, fields ...any) {
	logger.Warn("fold failed", append([]any{log.ErrAttrKey, err, log.ErrorCodeKey, log.ErrorFoldFailed}, fields...)...)
	fold, stage, cause := -1, "fit", err
	var fe *errors.FoldError
	if errors.As(err, &fe) {
		fold, stage, cause = fe.Fold, fe.Stage, fe.Err
	}
	errors.Warn(errors.NewFitFailedWarning(fold, stage, cause))
}

// scoreOrNaN scores one fold, turning a failed score into NaN with a
// FitFailedWarning. ErrNotProbabilistic and ErrMulticlass are returned as
// is: no fold of that estimator and target can be scored.
func scoreOrNaN(logger log.Logger, scorer metrics.Scorer, est model.Estimator, X, y mat.Matrix, fold int, fields ...any) (float64, error) {
	score, err := scoreFold(scorer, est, X, y, fold)
	if err == nil {
		return score, nil
	}
	if errors.Is(err, errors.ErrNotProbabilistic) || errors.Is(err, errors.ErrMulticlass) {
		return 0, err
	}
	warnFoldFailed(logger, err, append([]any{log.FoldKey, fold}, fields...)...)
	return math.NaN(), nil
}

// allFitsFailed returns an error wrapping the first failure when every
// entry of fitErrs is non-nil.
func allFitsFailed(fitErrs []error) error {
	if len(fitErrs) == 0 {
		return nil
	}
	for _, err := range fitErrs {
		if err == nil {
			return nil
		}
	}
	return errors.Wrapf(fitErrs[0], "all %d fits failed", len(fitErrs))
}

func scoreFold(scorer metrics.Scorer, est model.Estimator, X, y mat.Matrix, fold int) (float64, error) {
	var score float64
	err := errors.SafeExecute("score", func() error {
		var err error
		score, err = scorer.Score(est, X, y)
		return err
	})
	if err != nil {
		return 0, errors.NewFoldError(fold, "score", err)
	}
	return score, nil
}

// extractSubset copies the given rows of X and y. Row order follows
// indices.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}
	return xSubset, ySubset
}
