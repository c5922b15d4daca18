package evaluation

import (
	"fmt"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RepeatedKFold settings of PlotBoxPlot.
const (
	BoxPlotSplits  = 10
	BoxPlotRepeats = 5
)

// BoxPlotResult holds the repeated cross-validation scores of each model.
type BoxPlotResult struct {
	Scoring string
	Label   string // e.g. "Recall weighted"
	Names   []string
	Scores  [][]float64 // [model][split], BoxPlotSplits*BoxPlotRepeats per model
	Means   []float64
	Stds    []float64 // population std (ddof=0)
}

// PlotBoxPlot compares models with RepeatedKFold(10, 5) cross-validation
// and saves a box plot as "<model>_boxplot". Without WithModels the given
// model is evaluated alone under the WithModelName name.
func PlotBoxPlot(est model.Estimator, X, y mat.Matrix, opts ...Option) (*BoxPlotResult, error) {
	cfg := newConfig(config{modelName: DefaultModelName, scoring: DefaultScoring}, opts)

	models := cfg.models
	if len(models) == 0 {
		if est == nil {
			return nil, errors.NewValueError("PlotBoxPlot", "model must not be nil")
		}
		models = []NamedModel{{Name: cfg.modelName, Model: est}}
	}
	for i, m := range models {
		if m.Model == nil {
			return nil, errors.NewValueError("PlotBoxPlot", fmt.Sprintf("models[%d] (%s) is nil", i, m.Name))
		}
	}

	res := &BoxPlotResult{
		Scoring: cfg.scoring,
		Label:   metricLabel(cfg.scoring),
	}
	if cfg.printResults {
		fmt.Fprintf(cfg.out, "Model Evaluation - %s\n", res.Label)
	}

	logger := cfg.logger.With(
		log.ComponentKey, "evaluation",
		log.OperationKey, log.OperationBoxPlot,
		log.ScoringKey, cfg.scoring,
	)
	for _, m := range models {
		cv := model_selection.NewRepeatedKFold(BoxPlotSplits, BoxPlotRepeats, cfg.randomState)
		scores, err := model_selection.CrossValScore(m.Model, X, y, cv, cfg.scoring, cfg.cvOptions()...)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: repeated cross validation", m.Name)
		}
		mean, std := stat.PopMeanStdDev(scores, nil)

		res.Names = append(res.Names, m.Name)
		res.Scores = append(res.Scores, scores)
		res.Means = append(res.Means, mean)
		res.Stds = append(res.Stds, std)

		if cfg.printResults {
			fmt.Fprintf(cfg.out, "%s %.2f +/- %.2f\n", m.Name, mean, std)
		}
		logger.Info("model scored",
			log.ModelNameKey, m.Name,
			log.FoldsKey, len(scores),
			log.RepeatsKey, BoxPlotRepeats,
			log.RandomSeedKey, cfg.randomState,
			log.MeanScoreKey, mean,
			log.StdScoreKey, std,
		)
	}
	if cfg.printResults {
		fmt.Fprint(cfg.out, "\n\n")
	}

	if cfg.plotResults {
		p, err := chart.BoxPlot(chart.BoxConfig{
			Title:  "Boxplot View",
			XLabel: "Model",
			YLabel: res.Label,
		}, res.Names, res.Scores)
		if err != nil {
			return nil, errors.Wrap(err, "render box plot")
		}
		name := slug(cfg.modelName) + "_boxplot"
		if err := cfg.sink.Save(name, p); err != nil {
			return nil, errors.Wrapf(err, "save chart %s", name)
		}
		logger.Debug("chart saved", log.ChartKey, name)
	}
	return res, nil
}
