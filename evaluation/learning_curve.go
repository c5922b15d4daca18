package evaluation

import (
	"time"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
)

// DefaultCurveCV is the fold count of PlotLearningCurves.
const DefaultCurveCV = 10

// DefaultCurveSizes returns linspace(0.1, 1.0, 10).
func DefaultCurveSizes() []float64 {
	return model_selection.Linspace(0.1, 1.0, 10)
}

// PlotLearningCurves computes training and validation scores for growing
// training sets and saves the curve as "<model>_learning_curve".
func PlotLearningCurves(est model.Estimator, X, y mat.Matrix, opts ...Option) (*model_selection.LearningCurveResult, error) {
	cfg := newConfig(config{cv: DefaultCurveCV, modelName: DefaultModelName, scoring: DefaultScoring}, opts)
	if est == nil {
		return nil, errors.NewValueError("PlotLearningCurves", "model must not be nil")
	}
	sizes := cfg.trainSizes
	if len(sizes) == 0 {
		sizes = DefaultCurveSizes()
	}
	cv, err := model_selection.CheckCV(cfg.cv, model.IsClassifier(est))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := model_selection.LearningCurve(est, X, y, sizes, cv, cfg.scoring, cfg.cvOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: learning curve", cfg.modelName)
	}
	cfg.logger.Info("learning curve finished",
		log.ComponentKey, "evaluation",
		log.OperationKey, log.OperationLearningCurve,
		log.ModelNameKey, cfg.modelName,
		log.ScoringKey, cfg.scoring,
		log.FoldsKey, cv.NSplits(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if cfg.plotResults {
		if err := saveLearningCurve(cfg, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func saveLearningCurve(cfg *config, result *model_selection.LearningCurveResult) error {
	x := make([]float64, len(result.TrainSizes))
	for i, n := range result.TrainSizes {
		x[i] = float64(n)
	}
	label := curveLabel(cfg.scoring)
	p, err := chart.LearningCurve(chart.CurveConfig{
		Title:      cfg.modelName + " Learning Curve",
		XLabel:     "Number of training samples",
		YLabel:     metricLabel(label),
		TrainLabel: "training " + label,
		TestLabel:  "validation " + label,
	}, chart.CurveData{
		Sizes:     x,
		TrainMean: result.TrainMean(),
		TrainStd:  result.TrainStd(),
		TestMean:  result.TestMean(),
		TestStd:   result.TestStd(),
	})
	if err != nil {
		return errors.Wrap(err, "render learning curve")
	}
	name := slug(cfg.modelName) + "_learning_curve"
	if err := cfg.sink.Save(name, p); err != nil {
		return errors.Wrapf(err, "save chart %s", name)
	}
	cfg.logger.Debug("chart saved", log.ChartKey, name)
	return nil
}
