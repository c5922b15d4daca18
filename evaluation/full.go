package evaluation

import (
	"fmt"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
)

// FullReport bundles the results of FullModelEvaluation.
type FullReport struct {
	LearningCurve *model_selection.LearningCurveResult
	BoxPlot       *BoxPlotResult
	Metrics       *PerformanceTable
}

// FullModelEvaluation runs PlotLearningCurves, PlotBoxPlot and
// MetricEvaluation in that order with the same options. The model name
// defaults to "Decision Tree", and that resolved name is what all three
// steps see: it titles every chart, heads the box-plot summary and the
// metric table, and ends the "<name> Model evaluation complete." line.
// Calling MetricEvaluation on its own defaults to "Model" instead.
func FullModelEvaluation(est model.Estimator, X, y mat.Matrix, opts ...Option) (*FullReport, error) {
	cfg := newConfig(config{modelName: DefaultFullName}, opts)
	// 各ステップには解決済みの名前を渡す
	opts = append(append([]Option(nil), opts...), WithModelName(cfg.modelName))

	fmt.Fprintf(cfg.out, "%s Learning Curve\n", cfg.modelName)
	curve, err := PlotLearningCurves(est, X, y, opts...)
	if err != nil {
		return nil, err
	}
	box, err := PlotBoxPlot(est, X, y, opts...)
	if err != nil {
		return nil, err
	}
	table, err := MetricEvaluation(est, X, y, opts...)
	if err != nil {
		return nil, err
	}
	return &FullReport{LearningCurve: curve, BoxPlot: box, Metrics: table}, nil
}
