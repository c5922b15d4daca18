package evaluation

import (
	"bytes"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/datasets"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/linear_model"
	"github.com/YuminosukeSato/scieval/sklearn/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func init() {
	errors.SetWarningHandler(func(error) {})
}

func binaryData(t *testing.T) (*mat.Dense, *mat.Dense) {
	t.Helper()
	ds, err := datasets.MakeClassification(100, 4, 2, 42)
	require.NoError(t, err)
	return ds.X, ds.Y
}

func quiet(buf *bytes.Buffer, sink chart.Sink) []Option {
	return []Option{WithOutput(buf), WithSink(sink), WithLogger(log.Nop())}
}

func TestMetricEvaluation(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer
	rec := chart.NewRecorder()

	table, err := MetricEvaluation(tree.NewDecisionTreeClassifier(), X, y,
		append(quiet(&out, rec), WithModelName("Tree"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"accuracy", "precision_weighted", "recall_weighted", "f1_weighted", "roc_auc"}, table.Metrics)
	assert.Equal(t, []string{"Cross Val 1", "Cross Val 2", "Cross Val 3", "Cross Val 4", "Cross Val 5"}, table.Columns)
	require.Len(t, table.Scores, 5)
	for i, row := range table.Scores {
		require.Len(t, row, 5, table.Metrics[i])
		for _, v := range row {
			assert.Equal(t, round3(v), v)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "######### Tree: Averaged Cross Validated Scores ##########\n"))
	assert.Regexp(t, regexp.MustCompile(`(?m)^Accuracy score:            [ -]\d+\.\d\d%$`), text)
	assert.Regexp(t, regexp.MustCompile(`(?m)^ROC Area Under Curve:      [ -]\d\.\d{3}$`), text)
	assert.True(t, strings.HasSuffix(text, "Tree Model evaluation complete.\n"))

	assert.Equal(t, []string{"tree_metrics"}, rec.Names())
	p, ok := rec.Get("tree_metrics")
	require.True(t, ok)
	assert.Equal(t, "Cross Validation scores of the Tree", p.Title.Text)
	assert.Equal(t, "Cross Validation Fold number", p.X.Label.Text)
}

func TestMetricEvaluation_Reproducible(t *testing.T) {
	X, y := binaryData(t)
	run := func(opts ...Option) *PerformanceTable {
		var out bytes.Buffer
		table, err := MetricEvaluation(tree.NewDecisionTreeClassifier(), X, y,
			append(quiet(&out, chart.Discard), opts...)...)
		require.NoError(t, err)
		return table
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Equal(t, first, run(WithNJobs(4)))
}

func TestMetricEvaluation_PrintDisabled(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer
	rec := chart.NewRecorder()

	_, err := MetricEvaluation(tree.NewDecisionTreeClassifier(), X, y,
		append(quiet(&out, rec), WithPrintResults(false), WithPlotResults(false), WithCV(3))...)
	require.NoError(t, err)
	assert.Equal(t, "Model Model evaluation complete.\n", out.String())
	assert.Empty(t, rec.Names())
}

func TestPerformanceTable(t *testing.T) {
	table := &PerformanceTable{
		Metrics: []string{"accuracy", "roc_auc"},
		Columns: []string{"Cross Val 1", "Cross Val 2"},
		Scores:  [][]float64{{0.8, 0.9}, {0.75, 1}},
	}
	assert.InDelta(t, 0.85, table.Mean("accuracy"), 1e-12)
	assert.Equal(t, 0.0, table.Mean("f1_weighted"))

	row, ok := table.Row("roc_auc")
	require.True(t, ok)
	assert.Equal(t, []float64{0.75, 1}, row)

	assert.Equal(t, [][]string{
		{"", "Cross Val 1", "Cross Val 2"},
		{"accuracy", "0.800", "0.900"},
		{"roc_auc", "0.750", "1.000"},
	}, table.Records())
}

func TestPlotLearningCurves(t *testing.T) {
	X, y := binaryData(t)
	rec := chart.NewRecorder()
	var out bytes.Buffer

	res, err := PlotLearningCurves(tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3)), X, y, quiet(&out, rec)...)
	require.NoError(t, err)

	// 10-fold: 最初のフォールドの学習データは90件
	assert.Equal(t, []int{9, 18, 27, 36, 45, 54, 63, 72, 81, 90}, res.TrainSizes)
	require.Len(t, res.TestScores, 10)
	for _, row := range res.TestScores {
		assert.Len(t, row, 10)
	}
	assert.Empty(t, out.String())

	p, ok := rec.Get("model_learning_curve")
	require.True(t, ok)
	assert.Equal(t, "Number of training samples", p.X.Label.Text)
	assert.Equal(t, "Recall", p.Y.Label.Text)
}

// sortedByLabel reorders the rows so every class-0 sample comes first.
func sortedByLabel(X, y *mat.Dense) (*mat.Dense, *mat.Dense) {
	n, p := X.Dims()
	var order []int
	for _, cls := range []float64{0, 1} {
		for i := 0; i < n; i++ {
			if y.At(i, 0) == cls {
				order = append(order, i)
			}
		}
	}
	Xs, ys := mat.NewDense(n, p, nil), mat.NewDense(n, 1, nil)
	for k, i := range order {
		Xs.SetRow(k, X.RawRowView(i))
		ys.Set(k, 0, y.At(i, 0))
	}
	return Xs, ys
}

func TestPlotLearningCurves_ClassSortedData(t *testing.T) {
	X, y := sortedByLabel(binaryData(t))
	rec := chart.NewRecorder()
	var out bytes.Buffer

	// 学習データの先頭45件は class 0 のみなので 45 件以下のサイズは fit できない
	res, err := PlotLearningCurves(linear_model.NewLogisticRegression(), X, y, quiet(&out, rec)...)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 18, 27, 36, 45, 54, 63, 72, 81, 90}, res.TrainSizes)

	testMean := res.TestMean()
	for s, n := range res.TrainSizes {
		failed := n <= 45
		for f := range res.TestScores[s] {
			assert.Equal(t, failed, math.IsNaN(res.TestScores[s][f]), "size %d fold %d", n, f)
		}
		assert.Equal(t, failed, math.IsNaN(testMean[s]), "size %d", n)
	}

	_, ok := rec.Get("model_learning_curve")
	assert.True(t, ok)
}

func TestPlotLearningCurves_Options(t *testing.T) {
	X, y := binaryData(t)
	rec := chart.NewRecorder()
	var out bytes.Buffer

	res, err := PlotLearningCurves(tree.NewDecisionTreeClassifier(), X, y,
		append(quiet(&out, rec), WithCV(4), WithTrainSizes([]float64{0.5, 1}), WithScoring("accuracy"), WithModelName("DT"))...)
	require.NoError(t, err)
	assert.Equal(t, []int{37, 75}, res.TrainSizes)
	assert.Len(t, res.TrainScores[0], 4)

	p, ok := rec.Get("dt_learning_curve")
	require.True(t, ok)
	assert.Equal(t, "Accuracy", p.Y.Label.Text)
}

func TestPlotBoxPlot_DefaultsToSingleModel(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer
	rec := chart.NewRecorder()

	var models []NamedModel
	res, err := PlotBoxPlot(tree.NewDecisionTreeClassifier(), X, y,
		append(quiet(&out, rec), WithModels(models...))...)
	require.NoError(t, err)

	assert.Empty(t, models)
	assert.Equal(t, []string{"Model"}, res.Names)
	require.Len(t, res.Scores, 1)
	assert.Len(t, res.Scores[0], BoxPlotSplits*BoxPlotRepeats)
	assert.Equal(t, "Recall weighted", res.Label)

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Model Evaluation - Recall weighted", lines[0])
	assert.Regexp(t, `^Model \d\.\d\d \+/- \d\.\d\d$`, lines[1])
	assert.True(t, strings.HasSuffix(out.String(), "\n\n\n"))

	p, ok := rec.Get("model_boxplot")
	require.True(t, ok)
	assert.Equal(t, "Boxplot View", p.Title.Text)
	assert.Equal(t, "Recall weighted", p.Y.Label.Text)
}

func TestPlotBoxPlot_Models(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer

	models := []NamedModel{
		{Name: "Tree", Model: tree.NewDecisionTreeClassifier(tree.WithMaxDepth(2))},
		{Name: "Logistic", Model: linear_model.NewLogisticRegression()},
	}
	snapshot := append([]NamedModel(nil), models...)

	res, err := PlotBoxPlot(nil, X, y,
		append(quiet(&out, chart.Discard), WithModels(models...), WithScoring("accuracy"))...)
	require.NoError(t, err)
	assert.Equal(t, snapshot, models)
	assert.Equal(t, []string{"Tree", "Logistic"}, res.Names)
	assert.Len(t, res.Means, 2)
	assert.Contains(t, out.String(), "Model Evaluation - Accuracy\n")

	again, err := PlotBoxPlot(nil, X, y,
		append(quiet(&out, chart.Discard), WithModels(models...), WithScoring("accuracy"))...)
	require.NoError(t, err)
	assert.Equal(t, res.Scores, again.Scores)

	other, err := PlotBoxPlot(nil, X, y,
		append(quiet(&out, chart.Discard), WithModels(models[0]), WithScoring("accuracy"), WithRandomState(7))...)
	require.NoError(t, err)
	assert.NotEqual(t, res.Scores[0], other.Scores[0])
}

func TestFullModelEvaluation(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer
	rec := chart.NewRecorder()
	logger := log.NewTestLogger(log.LevelInfo)

	report, err := FullModelEvaluation(tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3)), X, y,
		WithOutput(&out), WithSink(rec), WithLogger(logger))
	require.NoError(t, err)
	require.NotNil(t, report.LearningCurve)
	require.NotNil(t, report.BoxPlot)
	require.NotNil(t, report.Metrics)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Decision Tree Learning Curve\n"))
	assert.Contains(t, text, "Model Evaluation - Recall weighted\nDecision Tree ")
	assert.Contains(t, text, "######### Decision Tree: Averaged Cross Validated Scores ##########")
	assert.True(t, strings.HasSuffix(text, "Decision Tree Model evaluation complete.\n"))

	assert.Equal(t, []string{
		"decision_tree_learning_curve",
		"decision_tree_boxplot",
		"decision_tree_metrics",
	}, rec.Names())
	assert.Equal(t, "Decision Tree", report.Metrics.ModelName)

	assert.True(t, logger.ContainsMessage("learning curve finished"))
	assert.True(t, logger.ContainsMessage("metric evaluation finished"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "Decision Tree"))
}

func TestFullModelEvaluation_ModelName(t *testing.T) {
	X, y := binaryData(t)
	tests := []struct {
		name     string
		opts     []Option
		wantName string
		wantSlug string
	}{
		{name: "default", wantName: "Decision Tree", wantSlug: "decision_tree"},
		{name: "explicit", opts: []Option{WithModelName("Pruned Tree")}, wantName: "Pruned Tree", wantSlug: "pruned_tree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rec := chart.NewRecorder()
			opts := append(quiet(&out, rec), WithCV(3), WithTrainSizes([]float64{0.5, 1}))
			report, err := FullModelEvaluation(tree.NewDecisionTreeClassifier(tree.WithMaxDepth(2)), X, y,
				append(opts, tt.opts...)...)
			require.NoError(t, err)

			// MetricEvaluation も同じ名前で呼ばれる
			assert.Equal(t, tt.wantName, report.Metrics.ModelName)
			assert.Contains(t, out.String(), "######### "+tt.wantName+": Averaged Cross Validated Scores ##########")
			assert.True(t, strings.HasSuffix(out.String(), tt.wantName+" Model evaluation complete.\n"))
			assert.Equal(t, []string{
				tt.wantSlug + "_learning_curve",
				tt.wantSlug + "_boxplot",
				tt.wantSlug + "_metrics",
			}, rec.Names())
		})
	}
}

func TestEvaluation_Errors(t *testing.T) {
	X, y := binaryData(t)
	var out bytes.Buffer
	opts := quiet(&out, chart.Discard)

	t.Run("nil model", func(t *testing.T) {
		_, err := MetricEvaluation(nil, X, y, opts...)
		assert.Error(t, err)
		_, err = PlotLearningCurves(nil, X, y, opts...)
		assert.Error(t, err)
		_, err = PlotBoxPlot(nil, X, y, opts...)
		assert.Error(t, err)
		_, err = PlotBoxPlot(nil, X, y, append(opts, WithModels(NamedModel{Name: "x"}))...)
		assert.Error(t, err)
	})

	t.Run("invalid cv", func(t *testing.T) {
		_, err := MetricEvaluation(tree.NewDecisionTreeClassifier(), X, y, append(opts, WithCV(1))...)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("unknown scoring", func(t *testing.T) {
		_, err := PlotBoxPlot(tree.NewDecisionTreeClassifier(), X, y, append(opts, WithScoring("nope"))...)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := MetricEvaluation(tree.NewDecisionTreeClassifier(), X, mat.NewDense(10, 1, nil), opts...)
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("roc_auc needs binary targets", func(t *testing.T) {
		ds, err := datasets.MakeClassification(60, 2, 3, 1)
		require.NoError(t, err)
		_, err = MetricEvaluation(tree.NewDecisionTreeClassifier(), ds.X, ds.Y, opts...)
		assert.Error(t, err)
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, " 85.67%", percent(0.8567))
	assert.Equal(t, "-10.00%", percent(-0.1))
	assert.Equal(t, " 0.900", fixed3(0.9))
	assert.Equal(t, 0.123, round3(0.12345))
	assert.Equal(t, 1.0, round3(0.9996))

	assert.Equal(t, "Recall weighted", metricLabel("recall_weighted"))
	assert.Equal(t, "Roc auc", metricLabel("ROC_AUC"))
	assert.Equal(t, "", metricLabel(""))
	assert.Equal(t, "recall", curveLabel("recall_macro"))
	assert.Equal(t, "accuracy", curveLabel("accuracy"))

	tests := map[string]string{
		"Decision Tree":       "decision_tree",
		"  Logistic (L2)  ":   "logistic_l2",
		"":                    "model",
		"Random-Forest v2.1!": "random_forest_v2_1",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), in)
	}
}
