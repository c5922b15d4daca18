// Package scieval evaluates classifiers the way a data-science notebook
// does: cross-validated metric tables, learning curves and box plots of
// repeated k-fold scores, rendered as charts and printed summaries.
//
// scieval ships the scikit-learn-like pieces it needs (decision tree,
// logistic regression, multinomial naive Bayes, scalers and pipelines,
// k-fold splitters and scorers) so evaluation runs without Python.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/YuminosukeSato/scieval/chart"
//	    "github.com/YuminosukeSato/scieval/datasets"
//	    "github.com/YuminosukeSato/scieval/evaluation"
//	    "github.com/YuminosukeSato/scieval/sklearn/tree"
//	)
//
//	func main() {
//	    data, err := datasets.MakeClassification(200, 4, 2, 42)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Learning curve, box plot and metric table; charts go to ./charts
//	    model := tree.NewDecisionTreeClassifier()
//	    _, err = evaluation.FullModelEvaluation(model, data.X, data.Y,
//	        evaluation.WithSink(chart.DirSink{Dir: "charts"}),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Packages
//
//   - evaluation: MetricEvaluation, PlotLearningCurves, PlotBoxPlot, FullModelEvaluation
//   - chart: gonum/plot renderers and chart sinks
//   - sklearn/model_selection: KFold, StratifiedKFold, RepeatedKFold, CrossValScore, LearningCurve
//   - sklearn/tree, sklearn/linear_model, sklearn/naive_bayes: classifiers
//   - preprocessing: StandardScaler, MinMaxScaler, Pipeline
//   - metrics: precision/recall/F1, ROC AUC, log loss, scorers, reports
//   - datasets: CSV loading and synthetic data
//   - config: YAML and environment configuration for cmd/scieval
//   - core/model, core/parallel, pkg/errors, pkg/log: shared infrastructure
//
// # Command Line
//
//	go run ./cmd/scieval evaluate --data iris.csv --target species
//	go run ./cmd/scieval boxplot --models tree,logistic,nb --scale
package scieval
