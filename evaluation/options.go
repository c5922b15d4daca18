package evaluation

import (
	"io"
	"os"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
)

// NamedModel pairs an estimator with the name shown in reports and charts.
type NamedModel struct {
	Name  string
	Model model.Estimator
}

// Option configures the evaluation functions. Options a function does not
// use are ignored, so one option list can be shared across calls.
type Option func(*config)

type config struct {
	cv           int
	modelName    string
	printResults bool
	plotResults  bool
	out          io.Writer
	sink         chart.Sink
	logger       log.Logger
	nJobs        int
	randomState  int
	trainSizes   []float64
	scoring      string
	models       []NamedModel
}

// Defaults shared by the operations.
const (
	DefaultRandomState = 100
	DefaultModelName   = "Model"
	DefaultFullName    = "Decision Tree"
	DefaultScoring     = "recall_weighted"
)

// newConfig applies opts; cv, modelName and scoring left unset fall back
// to the operation's defaults in base.
func newConfig(base config, opts []Option) *config {
	c := config{
		printResults: true,
		plotResults:  true,
		nJobs:        1,
		randomState:  DefaultRandomState,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.cv == 0 {
		c.cv = base.cv
	}
	if c.modelName == "" {
		c.modelName = base.modelName
	}
	if c.scoring == "" {
		c.scoring = base.scoring
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.sink == nil {
		c.sink = chart.Discard
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	return &c
}

func (c *config) cvOptions() []model_selection.Option {
	return []model_selection.Option{
		model_selection.WithNJobs(c.nJobs),
		model_selection.WithLogger(c.logger),
	}
}

// WithCV sets the number of cross-validation folds. MetricEvaluation
// defaults to 5 and PlotLearningCurves to 10.
func WithCV(cv int) Option {
	return func(c *config) {
		c.cv = cv
	}
}

// WithModelName sets the display name of the model.
func WithModelName(name string) Option {
	return func(c *config) {
		c.modelName = name
	}
}

// WithPrintResults toggles the printed summaries (default true). The
// completion line of MetricEvaluation is printed regardless.
func WithPrintResults(enabled bool) Option {
	return func(c *config) {
		c.printResults = enabled
	}
}

// WithPlotResults toggles chart rendering (default true).
func WithPlotResults(enabled bool) Option {
	return func(c *config) {
		c.plotResults = enabled
	}
}

// WithOutput sets where summaries are printed (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// WithSink sets where charts are saved (default chart.Discard).
func WithSink(sink chart.Sink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithNJobs sets how many folds are fitted concurrently (default 1).
// Scores do not depend on it.
func WithNJobs(nJobs int) Option {
	return func(c *config) {
		c.nJobs = nJobs
	}
}

// WithRandomState seeds RepeatedKFold in PlotBoxPlot (default 100).
func WithRandomState(seed int) Option {
	return func(c *config) {
		c.randomState = seed
	}
}

// WithTrainSizes sets the learning-curve sizes, fractions or absolute
// counts (default linspace(0.1, 1.0, 10)).
func WithTrainSizes(sizes []float64) Option {
	return func(c *config) {
		c.trainSizes = append([]float64(nil), sizes...)
	}
}

// WithScoring sets the scorer of PlotLearningCurves and PlotBoxPlot
// (default recall_weighted).
func WithScoring(scoring string) Option {
	return func(c *config) {
		c.scoring = scoring
	}
}

// WithModels sets the models compared by PlotBoxPlot. The slice is copied.
func WithModels(models ...NamedModel) Option {
	return func(c *config) {
		c.models = append([]NamedModel(nil), models...)
	}
}
