// Package linear_model provides linear classifiers.
package linear_model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression for binary targets;
// more than two classes are handled one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2" or "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  uint64  // Seed for the weight initialisation
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, n_classes x n_features otherwise)
	intercept_ []float64   // Intercept terms
	classes_   []float64   // Unique class labels, sorted
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per class
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none").
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the seed of the weight initialisation.
func WithLRRandomState(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

func (lr *LogisticRegression) validateParams() error {
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "only l2 and none are supported", lr.penalty)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	}
	if lr.tol < 0 {
		return errors.NewValidationError("tol", "must be non-negative", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.CheckXY("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}
	lr.state.Reset()

	lr.classes_ = model.UniqueLabels(y)
	lr.nClasses_ = len(lr.classes_)
	if lr.nClasses_ < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("needs samples of at least 2 classes, got %d", lr.nClasses_))
	}
	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	Xd := mat.DenseCopyOf(X)
	if lr.nClasses_ == 2 {
		// Binary classification: classes_[1] is the positive class
		lr.fitBinary(Xd, binaryTarget(y, lr.classes_[1]), 0)
	} else {
		// One-vs-rest
		for k, class := range lr.classes_ {
			lr.fitBinary(Xd, binaryTarget(y, class), k)
		}
	}

	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

func binaryTarget(y mat.Matrix, positive float64) *mat.VecDense {
	rows, _ := y.Dims()
	t := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == positive {
			t.SetVec(i, 1)
		}
	}
	return t
}

// initializeWeights initializes model weights with small values drawn
// from a generator seeded by randomState, so repeated fits agree.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	nModels := 1
	if lr.nClasses_ > 2 {
		nModels = lr.nClasses_
	}
	r := rand.New(rand.NewPCG(lr.randomState, lr.randomState))
	lr.coef_ = make([][]float64, nModels)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = r.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, nModels)
	lr.nIter_ = make([]int, nModels)
}

// fitBinary fits one binary model by gradient descent with a decaying
// learning rate. Non-convergence raises a ConvergenceWarning.
func (lr *LogisticRegression) fitBinary(X *mat.Dense, target *mat.VecDense, k int) {
	nSamples, nFeatures := X.Dims()
	weights := mat.NewVecDense(nFeatures, lr.coef_[k])
	intercept := lr.intercept_[k]

	z := mat.NewVecDense(nSamples, nil)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)

	const baseLearningRate = 1.0
	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		// residual = sigmoid(Xw + b) - t
		z.MulVec(X, weights)
		for i := 0; i < nSamples; i++ {
			residual.SetVec(i, sigmoid(z.AtVec(i)+intercept)-target.AtVec(i))
		}

		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/float64(nSamples), grad)
		if lr.penalty == "l2" {
			grad.AddScaledVec(grad, 1/lr.C, weights)
		}
		gradIntercept := mat.Sum(residual) / float64(nSamples)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		weights.AddScaledVec(weights, -learningRate, grad)
		if lr.fitIntercept {
			intercept -= learningRate * gradIntercept
		}
		lr.nIter_[k] = iter + 1

		maxGrad := math.Max(math.Abs(gradIntercept), mat.Norm(grad, math.Inf(1)))
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}
	lr.intercept_[k] = intercept

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"gradient descent did not reach tol; increase max_iter or scale the data"))
	}
}

func (lr *LogisticRegression) checkPredict(method string, X mat.Matrix) (int, error) {
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return 0, err
	}
	if X == nil {
		return 0, errors.NewValueError("LogisticRegression."+method, "X must not be nil")
	}
	rows, cols := X.Dims()
	if err := lr.state.CheckFeatures("LogisticRegression."+method, cols); err != nil {
		return 0, err
	}
	return rows, nil
}

// DecisionFunction returns the linear scores: one column for binary
// targets, one per class otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	rows, err := lr.checkPredict("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	scores := mat.NewDense(rows, len(lr.coef_), nil)
	for i := 0; i < rows; i++ {
		for k, w := range lr.coef_ {
			s := lr.intercept_[k]
			for j, wj := range w {
				s += X.At(i, j) * wj
			}
			scores.Set(i, k, s)
		}
	}
	return scores, nil
}

// PredictProba returns probability estimates for each class. Columns
// follow Classes(); one-vs-rest scores are normalised with softmax.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	rows, _ := scores.Dims()
	probas := mat.NewDense(rows, lr.nClasses_, nil)
	for i := 0; i < rows; i++ {
		if lr.nClasses_ == 2 {
			p1 := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p1)
			probas.Set(i, 1, p1)
			continue
		}
		row := scores.RawRowView(i)
		maxScore := math.Inf(-1)
		for _, s := range row {
			maxScore = math.Max(maxScore, s)
		}
		sum := 0.0
		for k, s := range row {
			e := math.Exp(s - maxScore)
			probas.Set(i, k, e)
			sum += e
		}
		for k := range row {
			probas.Set(i, k, probas.At(i, k)/sum)
		}
	}
	return probas, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for k := 1; k < lr.nClasses_; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, lr.classes_[best])
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) float64 {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0.0
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples)
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []float64 {
	out := make([]float64, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef_))
	for i, row := range lr.coef_ {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Intercept returns a copy of the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of iterations run for each binary model.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// IsFitted reports whether Fit has completed.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters. Values are validated by Fit.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	next := *lr
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			next.penalty, ok = value.(string)
		case "C":
			next.C, ok = value.(float64)
		case "fit_intercept":
			next.fitIntercept, ok = value.(bool)
		case "random_state":
			next.randomState, ok = value.(uint64)
		case "max_iter":
			next.maxIter, ok = value.(int)
		case "tol":
			next.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter for LogisticRegression", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	lr.penalty = next.penalty
	lr.C = next.C
	lr.fitIntercept = next.fitIntercept
	lr.randomState = next.randomState
	lr.maxIter = next.maxIter
	lr.tol = next.tol
	return nil
}

// Clone returns an unfitted model with the same hyperparameters.
func (lr *LogisticRegression) Clone() model.Estimator {
	return NewLogisticRegression(
		WithLRPenalty(lr.penalty),
		WithLRC(lr.C),
		WithLogisticFitIntercept(lr.fitIntercept),
		WithLRRandomState(lr.randomState),
		WithLRMaxIter(lr.maxIter),
		WithLRTol(lr.tol),
	)
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, max_iter=%d)", lr.penalty, lr.C, lr.maxIter)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}
