package main

import (
	"io"
	"os"

	"github.com/YuminosukeSato/scieval/config"
	"github.com/YuminosukeSato/scieval/datasets"
	"github.com/YuminosukeSato/scieval/evaluation"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand. It is filled in by the
// root PersistentPreRunE.
type app struct {
	cfgPath string

	// 合成データ（--data 未指定時）
	samples  int
	features int
	classes  int
	seed     int

	cfg  *config.Config
	data *datasets.Dataset
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "scieval",
		Short:         "Cross-validated evaluation of classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML config file")
	pf.String("data", "", "CSV file with a header row")
	pf.String("target", "", "target column (default: last column)")
	pf.String("model", config.ModelTree, "model type: tree, logistic or nb")
	pf.String("name", "", "model name used in output and chart titles")
	pf.Bool("scale", false, "standardize features before fitting")
	pf.Int("cv", 0, "number of cross-validation folds")
	pf.String("scoring", "", "scorer for learning curves and box plots")
	pf.Int("n-jobs", 0, "parallel folds (<=0 uses all CPUs)")
	pf.String("out-dir", "", "chart output directory")
	pf.String("format", "", "chart format: png, svg or pdf")
	pf.Bool("no-plot", false, "do not write charts")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.IntVar(&a.samples, "samples", 200, "synthetic dataset size")
	pf.IntVar(&a.features, "features", 4, "synthetic feature count")
	pf.IntVar(&a.classes, "classes", 2, "synthetic class count")
	pf.IntVar(&a.seed, "seed", 42, "synthetic dataset seed")

	cmd.AddCommand(
		newEvaluateCmd(a),
		newMetricsCmd(a),
		newLearningCurveCmd(a),
		newBoxPlotCmd(a),
		newReportCmd(a),
	)
	return cmd
}

// setup resolves the configuration (defaults, file, env, then flags),
// installs the logger and loads the dataset.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := log.SetupLogger(os.Stderr, cfg.Log.Level); err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Data.Path != "" {
		a.data, err = datasets.LoadCSVFile(cfg.Data.Path, cfg.Data.Target)
	} else {
		a.data, err = datasets.MakeClassification(a.samples, a.features, a.classes, a.seed)
	}
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	n, p := a.data.Dims()
	log.GetLogger().Debug("dataset loaded",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.PathKey, cfg.Data.Path,
	)
	return nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	str := func(name string, dst *string) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetString(name)
		}
	}
	integer := func(name string, dst *int) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetInt(name)
		}
	}

	str("data", &cfg.Data.Path)
	str("target", &cfg.Data.Target)
	str("model", &cfg.Model.Type)
	str("name", &cfg.Model.Name)
	str("scoring", &cfg.Evaluation.Scoring)
	str("out-dir", &cfg.Output.Dir)
	str("format", &cfg.Output.Format)
	str("log-level", &cfg.Log.Level)
	integer("cv", &cfg.Evaluation.CV)
	integer("n-jobs", &cfg.Evaluation.NJobs)
	if err == nil && f.Changed("scale") {
		cfg.Model.Scale, err = f.GetBool("scale")
	}
	if err == nil && f.Changed("no-plot") {
		var noPlot bool
		noPlot, err = f.GetBool("no-plot")
		cfg.Output.Plot = !noPlot
	}
	if err != nil {
		return errors.Wrap(err, "read flags")
	}
	// --model だけ変えた場合はその型のデフォルト名を使う
	if f.Changed("model") && !f.Changed("name") && cfg.Model.Name == config.Default().Model.Name {
		cfg.Model.Name = defaultName(cfg.Model.Type)
	}
	return nil
}

func defaultName(modelType string) string {
	switch modelType {
	case config.ModelLogistic:
		return "Logistic Regression"
	case config.ModelNB:
		return "Naive Bayes"
	default:
		return "Decision Tree"
	}
}

// evalOptions maps the resolved configuration onto evaluation options.
// cv is applied only when positive.
func (a *app) evalOptions(out io.Writer, cv int) []evaluation.Option {
	c := a.cfg
	opts := []evaluation.Option{
		evaluation.WithOutput(out),
		evaluation.WithSink(c.Output.Sink()),
		evaluation.WithPrintResults(c.Output.Print),
		evaluation.WithPlotResults(c.Output.Plot),
		evaluation.WithModelName(c.Model.Name),
		evaluation.WithScoring(c.Evaluation.Scoring),
		evaluation.WithRandomState(c.Evaluation.RandomState),
		evaluation.WithNJobs(c.Evaluation.NJobs),
	}
	if cv > 0 {
		opts = append(opts, evaluation.WithCV(cv))
	}
	if len(c.Evaluation.TrainSizes) > 0 {
		opts = append(opts, evaluation.WithTrainSizes(c.Evaluation.TrainSizes))
	}
	return opts
}
