// Package log defines standard attribute keys for evaluation runs.
//
// Keys follow a hierarchical naming convention ("model.name", "cv.fold")
// so that fold-level records of one run can be filtered together.
package log

// Model and Operation Context
const (
	// ModelNameKey is the display name of the evaluated model, e.g. "Decision Tree".
	ModelNameKey = "model.name"

	// EstimatorKey is the Go type of the estimator, e.g. "DecisionTreeClassifier".
	EstimatorKey = "model.estimator"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "cross_val_score", "learning_curve"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "model_selection", "evaluation", "chart"
	ComponentKey = "ml.component"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct labels.
	ClassesKey = "data.classes"

	// TrainSizeKey is the number of training samples used in one fit.
	TrainSizeKey = "data.train_size"

	// TestSizeKey is the number of samples a fold is scored on.
	TestSizeKey = "data.test_size"
)

// Cross-validation Context
const (
	// FoldKey is the zero-based index of a fold.
	FoldKey = "cv.fold"

	// FoldsKey is the total number of folds produced by a splitter.
	FoldsKey = "cv.folds"

	// RepeatsKey is the number of repetitions of a repeated splitter.
	RepeatsKey = "cv.repeats"

	// SplitterKey is the splitter type, e.g. "StratifiedKFold".
	SplitterKey = "cv.splitter"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// NJobsKey is the number of folds evaluated concurrently.
	NJobsKey = "config.n_jobs"
)

// Metrics
const (
	// ScoringKey names the scorer, e.g. "recall_weighted".
	ScoringKey = "metrics.scoring"

	// ScoreKey records a single fold score.
	ScoreKey = "metrics.score"

	// MeanScoreKey records the mean over folds.
	MeanScoreKey = "metrics.mean"

	// StdScoreKey records the population standard deviation over folds.
	StdScoreKey = "metrics.std"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Output
const (
	// ChartKey is the sink name a chart was saved under.
	ChartKey = "chart.name"

	// PathKey is a filesystem path written by a sink.
	PathKey = "output.path"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute value constants.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationScore         = "score"
	OperationCrossValScore = "cross_val_score"
	OperationLearningCurve = "learning_curve"
	OperationBoxPlot       = "box_plot"
	OperationMetricEval    = "metric_evaluation"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorFoldFailed        = "FOLD_FAILED"
)
