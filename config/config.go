// Package config loads the scieval CLI configuration.
//
// Values are resolved in three layers: built-in defaults, an optional
// YAML file, then SCIEVAL_* environment variables. Command-line flags are
// applied on top by cmd/scieval.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/scieval/chart"
	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/YuminosukeSato/scieval/pkg/log"
	"github.com/YuminosukeSato/scieval/preprocessing"
	"github.com/YuminosukeSato/scieval/sklearn/linear_model"
	"github.com/YuminosukeSato/scieval/sklearn/naive_bayes"
	"github.com/YuminosukeSato/scieval/sklearn/tree"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SCIEVAL_"

// Supported model types.
const (
	ModelTree     = "tree"
	ModelLogistic = "logistic"
	ModelNB       = "nb"
)

// Config is the full CLI configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"       envPrefix:"DATA_"`
	Model      ModelConfig      `yaml:"model"      envPrefix:"MODEL_"`
	Evaluation EvaluationConfig `yaml:"evaluation" envPrefix:"EVAL_"`
	Output     OutputConfig     `yaml:"output"     envPrefix:"OUTPUT_"`
	Log        LogConfig        `yaml:"log"        envPrefix:"LOG_"`
}

// DataConfig locates the input dataset.
type DataConfig struct {
	Path   string `yaml:"path"   env:"PATH"`
	Target string `yaml:"target" env:"TARGET"` // empty selects the last column
}

// ModelConfig selects and parameterizes the evaluated classifier.
type ModelConfig struct {
	Type      string  `yaml:"type"       env:"TYPE"`
	Name      string  `yaml:"name"       env:"NAME"`
	Scale     bool    `yaml:"scale"      env:"SCALE"` // wrap in StandardScaler pipeline
	Criterion string  `yaml:"criterion"  env:"CRITERION"`
	MaxDepth  int     `yaml:"max_depth"  env:"MAX_DEPTH"`
	C         float64 `yaml:"c"          env:"C"`
	MaxIter   int     `yaml:"max_iter"   env:"MAX_ITER"`
	Seed      uint64  `yaml:"seed"       env:"SEED"`
	Alpha     float64 `yaml:"alpha"      env:"ALPHA"` // naive Bayes smoothing
}

// EvaluationConfig mirrors the evaluation package options.
type EvaluationConfig struct {
	CV          int       `yaml:"cv"           env:"CV"`
	CurveCV     int       `yaml:"curve_cv"     env:"CURVE_CV"`
	Scoring     string    `yaml:"scoring"      env:"SCORING"`
	RandomState int       `yaml:"random_state" env:"RANDOM_STATE"`
	NJobs       int       `yaml:"n_jobs"       env:"N_JOBS"`
	TrainSizes  []float64 `yaml:"train_sizes"  env:"TRAIN_SIZES" envSeparator:","`
}

// OutputConfig controls printed and plotted output.
type OutputConfig struct {
	Dir    string `yaml:"dir"    env:"DIR"`
	Format string `yaml:"format" env:"FORMAT"`
	Plot   bool   `yaml:"plot"   env:"PLOT"`
	Print  bool   `yaml:"print"  env:"PRINT"`
}

// LogConfig sets the zerolog level.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Type:      ModelTree,
			Name:      "Decision Tree",
			Criterion: tree.CriterionGini,
			MaxDepth:  -1,
			C:         1.0,
			MaxIter:   100,
			Alpha:     1.0,
		},
		Evaluation: EvaluationConfig{
			CV:          5,
			CurveCV:     10,
			Scoring:     "recall_weighted",
			RandomState: 100,
			NJobs:       1,
		},
		Output: OutputConfig{
			Dir:    "charts",
			Format: "png",
			Plot:   true,
			Print:  true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads defaults, then the YAML file at path (skipped when empty),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := cfg.decodeYAML(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from SCIEVAL_* variables. A nil environment
// reads the process environment.
func (c *Config) ApplyEnv(environment map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.Wrap(err, "parse env")
	}
	return nil
}

// Validate reports the first invalid field as a ValidationError.
func (c *Config) Validate() error {
	switch c.Model.Type {
	case ModelTree, ModelLogistic, ModelNB:
	default:
		return errors.NewValidationError("model.type", "must be tree, logistic or nb", c.Model.Type)
	}
	if c.Evaluation.CV < 2 {
		return errors.NewValidationError("evaluation.cv", "must be at least 2", c.Evaluation.CV)
	}
	if c.Evaluation.CurveCV < 2 {
		return errors.NewValidationError("evaluation.curve_cv", "must be at least 2", c.Evaluation.CurveCV)
	}
	if c.Evaluation.Scoring == "" {
		return errors.NewValidationError("evaluation.scoring", "must not be empty", c.Evaluation.Scoring)
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "svg", "pdf":
	default:
		return errors.NewValidationError("output.format", "must be png, svg or pdf", c.Output.Format)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// BuildModel creates the configured classifier, wrapped in a
// StandardScaler pipeline when Scale is set. Naive Bayes always gets a
// MinMaxScaler to [0, 1] so its features are non-negative.
func (m ModelConfig) BuildModel() (model.Classifier, error) {
	var clf model.Classifier
	switch m.Type {
	case ModelTree:
		clf = tree.NewDecisionTreeClassifier(
			tree.WithCriterion(m.Criterion),
			tree.WithMaxDepth(m.MaxDepth),
		)
	case ModelLogistic:
		clf = linear_model.NewLogisticRegression(
			linear_model.WithLRC(m.C),
			linear_model.WithLRMaxIter(m.MaxIter),
			linear_model.WithLRRandomState(m.Seed),
		)
	case ModelNB:
		return preprocessing.NewPipeline(
			preprocessing.NewMinMaxScalerDefault(),
			naive_bayes.NewMultinomialNB(naive_bayes.WithAlpha(m.Alpha)),
		), nil
	default:
		return nil, errors.NewValidationError("model.type", "must be tree, logistic or nb", m.Type)
	}
	if m.Scale {
		return preprocessing.NewPipeline(preprocessing.NewStandardScalerDefault(), clf), nil
	}
	return clf, nil
}

// Sink returns the chart sink for the output settings.
func (o OutputConfig) Sink() chart.Sink {
	if !o.Plot {
		return chart.Discard
	}
	return chart.DirSink{Dir: o.Dir, Format: o.Format}
}
