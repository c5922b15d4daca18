package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/YuminosukeSato/scieval/config"
	"github.com/YuminosukeSato/scieval/evaluation"
	"github.com/YuminosukeSato/scieval/metrics"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Learning curve, box plot and metric table in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est, err := a.cfg.Model.BuildModel()
			if err != nil {
				return err
			}
			// 各ステップの既定 fold 数を保つため、cv は変更時のみ渡す
			cv := 0
			if a.cfg.Evaluation.CV != evaluation.DefaultMetricCV {
				cv = a.cfg.Evaluation.CV
			}
			start := time.Now()
			_, err = evaluation.FullModelEvaluation(est, a.data.X, a.data.Y, a.evalOptions(cmd.OutOrStdout(), cv)...)
			if err != nil {
				return err
			}
			log.GetLogger().Info("evaluation finished",
				log.ModelNameKey, a.cfg.Model.Name,
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
			return nil
		},
	}
}

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Cross-validated accuracy, precision, recall, F1 and ROC AUC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est, err := a.cfg.Model.BuildModel()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tbl, err := evaluation.MetricEvaluation(est, a.data.X, a.data.Y, a.evalOptions(out, a.cfg.Evaluation.CV)...)
			if err != nil {
				return err
			}
			records := tbl.Records()
			fmt.Fprintln(out, renderTable(records[0], records[1:]))
			return nil
		},
	}
}

func newLearningCurveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "learning-curve",
		Short: "Training and validation scores over growing training sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est, err := a.cfg.Model.BuildModel()
			if err != nil {
				return err
			}
			cv := a.cfg.Evaluation.CurveCV
			if cmd.Flags().Changed("cv") {
				cv = a.cfg.Evaluation.CV
			}
			out := cmd.OutOrStdout()
			res, err := evaluation.PlotLearningCurves(est, a.data.X, a.data.Y, a.evalOptions(out, cv)...)
			if err != nil {
				return err
			}
			if !a.cfg.Output.Print {
				return nil
			}
			trainMean, trainStd := res.TrainMean(), res.TrainStd()
			testMean, testStd := res.TestMean(), res.TestStd()
			rows := make([][]string, len(res.TrainSizes))
			for i, n := range res.TrainSizes {
				rows[i] = []string{
					strconv.Itoa(n),
					fmt.Sprintf("%.3f ± %.3f", trainMean[i], trainStd[i]),
					fmt.Sprintf("%.3f ± %.3f", testMean[i], testStd[i]),
				}
			}
			fmt.Fprintln(out, renderTable([]string{"samples", "train", "validation"}, rows))
			return nil
		},
	}
}

func newBoxPlotCmd(a *app) *cobra.Command {
	var modelTypes []string
	cmd := &cobra.Command{
		Use:   "boxplot",
		Short: "Repeated k-fold score distribution per model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := buildModels(a.cfg.Model, modelTypes)
			if err != nil {
				return err
			}
			opts := a.evalOptions(cmd.OutOrStdout(), 0)
			if len(models) > 0 {
				opts = append(opts, evaluation.WithModels(models...))
			}
			est, err := a.cfg.Model.BuildModel()
			if err != nil {
				return err
			}
			_, err = evaluation.PlotBoxPlot(est, a.data.X, a.data.Y, opts...)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&modelTypes, "models", nil, "compare several model types, e.g. tree,logistic")
	return cmd
}

// buildModels builds one NamedModel per type, sharing the remaining model
// settings of base.
func buildModels(base config.ModelConfig, types []string) ([]evaluation.NamedModel, error) {
	models := make([]evaluation.NamedModel, 0, len(types))
	for _, t := range types {
		mc := base
		mc.Type = t
		est, err := mc.BuildModel()
		if err != nil {
			return nil, err
		}
		models = append(models, evaluation.NamedModel{Name: defaultName(t), Model: est})
	}
	return models, nil
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Out-of-fold classification report and confusion matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est, err := a.cfg.Model.BuildModel()
			if err != nil {
				return err
			}
			c := a.cfg.Evaluation
			cv := model_selection.NewStratifiedKFold(c.CV, true, c.RandomState)
			pred, err := model_selection.CrossValPredict(est, a.data.X, a.data.Y, cv,
				model_selection.WithNJobs(c.NJobs),
				model_selection.WithLogger(log.GetLogger()),
			)
			if err != nil {
				return err
			}
			yTrue := mat.Col(nil, 0, a.data.Y)
			yPred := mat.Col(nil, 0, pred)
			return writeReport(cmd.OutOrStdout(), a.cfg.Model.Name, a.data.ClassNames, yTrue, yPred)
		},
	}
}

func writeReport(out io.Writer, name string, classNames []string, yTrue, yPred []float64) error {
	report, err := metrics.ClassificationReport(yTrue, yPred, 3)
	if err != nil {
		return errors.Wrap(err, "classification report")
	}
	cm, labels, err := metrics.ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return errors.Wrap(err, "confusion matrix")
	}

	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = labelName(l, classNames)
	}
	headers := append([]string{"true \\ pred"}, names...)
	rows := make([][]string, len(labels))
	for i := range labels {
		row := []string{names[i]}
		for j := range labels {
			row = append(row, strconv.Itoa(int(cm.At(i, j))))
		}
		rows[i] = row
	}

	fmt.Fprintf(out, "%s Classification Report\n\n%s\n", name, report)
	fmt.Fprintln(out, renderTable(headers, rows))
	return nil
}

// labelName maps an encoded label back to its CSV class name when one
// exists.
func labelName(label float64, classNames []string) string {
	i := int(label)
	if float64(i) == label && i >= 0 && i < len(classNames) {
		return classNames[i]
	}
	return strconv.FormatFloat(label, 'g', -1, 64)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		Render()
}
