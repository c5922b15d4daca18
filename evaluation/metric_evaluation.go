// Package evaluation runs cross-validated evaluations of a classifier and
// reports them as printed summaries and charts.
//
// The four entry points mirror a notebook workflow:
//
//	table, err := evaluation.MetricEvaluation(clf, X, y, evaluation.WithModelName("Tree"))
//	curve, err := evaluation.PlotLearningCurves(clf, X, y)
//	box, err := evaluation.PlotBoxPlot(clf, X, y)
//	report, err := evaluation.FullModelEvaluation(clf, X, y)
//
// The estimator passed in is never fitted; every fold fits a clone.
package evaluation

import (
	"fmt"
	"time"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/metrics"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultMetricCV is the fold count of MetricEvaluation.
const DefaultMetricCV = 5

// Metrics is the row order of every PerformanceTable.
var Metrics = []string{
	metrics.ScoringAccuracy,
	metrics.ScoringPrecisionWeighted,
	metrics.ScoringRecallWeighted,
	metrics.ScoringF1Weighted,
	metrics.ScoringROCAUC,
}

// PerformanceTable holds per-fold scores: one row per metric, one column
// per fold. Scores are rounded to three decimals.
type PerformanceTable struct {
	ModelName string
	Metrics   []string
	Columns   []string    // "Cross Val 1" .. "Cross Val k"
	Scores    [][]float64 // [metric][fold]
}

// Row returns the fold scores of metric.
func (t *PerformanceTable) Row(metric string) ([]float64, bool) {
	for i, m := range t.Metrics {
		if m == metric {
			return t.Scores[i], true
		}
	}
	return nil, false
}

// Mean returns the mean of the rounded fold scores of metric, or 0 when
// the metric is not in the table.
func (t *PerformanceTable) Mean(metric string) float64 {
	row, ok := t.Row(metric)
	if !ok || len(row) == 0 {
		return 0
	}
	return stat.Mean(row, nil)
}

// Records returns the table as strings with a header row, suitable for
// CSV output or terminal rendering.
func (t *PerformanceTable) Records() [][]string {
	records := make([][]string, 0, len(t.Metrics)+1)
	records = append(records, append([]string{""}, t.Columns...))
	for i, m := range t.Metrics {
		row := make([]string, 0, len(t.Columns)+1)
		row = append(row, m)
		for _, v := range t.Scores[i] {
			row = append(row, fmt.Sprintf("%.3f", v))
		}
		records = append(records, row)
	}
	return records
}

// MetricEvaluation cross-validates model on the five Metrics and returns
// the score table. With printing enabled it writes the averaged scores;
// with plotting enabled it saves a grouped bar chart named
// "<model>_metrics" to the sink.
func MetricEvaluation(est model.Estimator, X, y mat.Matrix, opts ...Option) (*PerformanceTable, error) {
	cfg := newConfig(config{cv: DefaultMetricCV, modelName: DefaultModelName}, opts)
	if est == nil {
		return nil, errors.NewValueError("MetricEvaluation", "model must not be nil")
	}
	cv, err := model_selection.CheckCV(cfg.cv, model.IsClassifier(est))
	if err != nil {
		return nil, err
	}

	logger := cfg.logger.With(
		log.ComponentKey, "evaluation",
		log.OperationKey, log.OperationMetricEval,
		log.ModelNameKey, cfg.modelName,
	)
	start := time.Now()

	table := &PerformanceTable{
		ModelName: cfg.modelName,
		Metrics:   append([]string(nil), Metrics...),
		Scores:    make([][]float64, len(Metrics)),
	}
	for i, metric := range Metrics {
		scores, err := model_selection.CrossValScore(est, X, y, cv, metric, cfg.cvOptions()...)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", cfg.modelName, metric)
		}
		row := make([]float64, len(scores))
		for j, s := range scores {
			row[j] = round3(s)
		}
		table.Scores[i] = row
		logger.Debug("metric scored", log.ScoringKey, metric, log.MeanScoreKey, table.Mean(metric))
	}
	for n := 1; n <= len(table.Scores[0]); n++ {
		table.Columns = append(table.Columns, fmt.Sprintf("Cross Val %d", n))
	}

	if cfg.plotResults {
		if err := saveMetricBars(cfg, table); err != nil {
			return nil, err
		}
	}

	if cfg.printResults {
		printAverages(cfg, table)
	}
	fmt.Fprintf(cfg.out, "%s Model evaluation complete.\n", cfg.modelName)

	logger.Info("metric evaluation finished",
		log.FoldsKey, len(table.Columns),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return table, nil
}

func saveMetricBars(cfg *config, table *PerformanceTable) error {
	series := make([]chart.Series, len(table.Metrics))
	for i, m := range table.Metrics {
		series[i] = chart.Series{Name: m, Values: table.Scores[i]}
	}
	p, err := chart.MetricBars(chart.BarsConfig{
		Title:       fmt.Sprintf("Cross Validation scores of the %s", cfg.modelName),
		XLabel:      "Cross Validation Fold number",
		YLabel:      "Cross Validated scores of the Metric",
		LegendTitle: "Estimator",
	}, table.Columns, series)
	if err != nil {
		return errors.Wrap(err, "render metric chart")
	}
	name := slug(cfg.modelName) + "_metrics"
	if err := cfg.sink.Save(name, p); err != nil {
		return errors.Wrapf(err, "save chart %s", name)
	}
	cfg.logger.Debug("chart saved", log.ChartKey, name)
	return nil
}

func printAverages(cfg *config, table *PerformanceTable) {
	w := cfg.out
	fmt.Fprintf(w, "######### %s: Averaged Cross Validated Scores ##########\n", cfg.modelName)
	fmt.Fprintf(w, "Accuracy score:            %s\n", percent(table.Mean(metrics.ScoringAccuracy)))
	fmt.Fprintf(w, "Weighted Precision score:  %s\n", percent(table.Mean(metrics.ScoringPrecisionWeighted)))
	fmt.Fprintf(w, "Weighted Recall score:     %s\n", percent(table.Mean(metrics.ScoringRecallWeighted)))
	fmt.Fprintf(w, "Weighted F1 score:         %s\n", percent(table.Mean(metrics.ScoringF1Weighted)))
	fmt.Fprintf(w, "ROC Area Under Curve:      %s\n", fixed3(table.Mean(metrics.ScoringROCAUC)))
}
