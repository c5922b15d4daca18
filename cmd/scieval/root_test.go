package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scieval/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("x1,x2,species\n")
	for i := 0; i < 40; i++ {
		label := "setosa"
		if i%2 == 1 {
			label = "virginica"
		}
		fmt.Fprintf(&b, "%g,%d,%s\n", float64(i%2)*10+float64(i%5)*0.1, i%3, label)
	}
	path := filepath.Join(t.TempDir(), "flowers.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestMetricsCommand(t *testing.T) {
	out, err := run(t, "metrics", "--samples", "60", "--no-plot")
	require.NoError(t, err)
	assert.Contains(t, out, "Decision Tree Model evaluation complete.")
	assert.Contains(t, out, "Cross Val 5")
	assert.Contains(t, out, "roc_auc")
}

func TestEvaluateCommandWritesCharts(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "evaluate", "--samples", "60", "--out-dir", dir, "--format", "svg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Decision Tree Learning Curve\n"))

	for _, name := range []string{"decision_tree_learning_curve", "decision_tree_boxplot", "decision_tree_metrics"} {
		assert.FileExists(t, filepath.Join(dir, name+".svg"))
	}
}

func TestLearningCurveCommand(t *testing.T) {
	out, err := run(t, "learning-curve", "--samples", "60", "--cv", "3", "--no-plot")
	require.NoError(t, err)
	assert.Contains(t, out, "validation")
	assert.Contains(t, out, "±")
}

func TestBoxPlotCommandModels(t *testing.T) {
	out, err := run(t, "boxplot", "--samples", "60", "--no-plot", "--models", "tree,logistic,nb", "--scale")
	require.NoError(t, err)
	assert.Contains(t, out, "Model Evaluation - Recall weighted")
	assert.Contains(t, out, "Decision Tree ")
	assert.Contains(t, out, "Logistic Regression ")
	assert.Contains(t, out, "Naive Bayes ")

	_, err = run(t, "boxplot", "--samples", "60", "--no-plot", "--models", "svm")
	assert.Error(t, err)
}

func TestReportCommandCSV(t *testing.T) {
	out, err := run(t, "report", "--data", writeCSV(t), "--model", "logistic", "--cv", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Logistic Regression Classification Report")
	assert.Contains(t, out, "setosa")
	assert.Contains(t, out, "virginica")
	assert.Contains(t, out, "weighted avg")
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown model", []string{"metrics", "--model", "svm"}},
		{"bad cv", []string{"metrics", "--cv", "1"}},
		{"bad format", []string{"metrics", "--format", "gif"}},
		{"missing data", []string{"metrics", "--data", "no/such/file.csv"}},
		{"missing config", []string{"metrics", "--config", "no/such/scieval.yaml"}},
		{"extra args", []string{"metrics", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--model", "logistic", "--cv", "7", "--no-plot"}))

	cfg := config.Default()
	require.NoError(t, applyFlags(cmd, cfg))
	assert.Equal(t, config.ModelLogistic, cfg.Model.Type)
	assert.Equal(t, "Logistic Regression", cfg.Model.Name)
	assert.Equal(t, 7, cfg.Evaluation.CV)
	assert.False(t, cfg.Output.Plot)
	// 未指定のフラグは設定値を変えない
	assert.Equal(t, "recall_weighted", cfg.Evaluation.Scoring)
	assert.Equal(t, 1, cfg.Evaluation.NJobs)
}

func TestLabelName(t *testing.T) {
	names := []string{"setosa", "virginica"}
	assert.Equal(t, "virginica", labelName(1, names))
	assert.Equal(t, "2", labelName(2, names))
	assert.Equal(t, "0.5", labelName(0.5, names))
	assert.Equal(t, "1", labelName(1, nil))
}
