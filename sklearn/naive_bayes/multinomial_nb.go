// Package naive_bayes provides naive Bayes classifiers for count-like
// features.
package naive_bayes

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minAlpha は alpha=0 のときに log(0) を避けるための下限
const minAlpha = 1e-10

// MultinomialNB is a naive Bayes classifier for multinomially
// distributed features such as word counts or min-max scaled values.
// Features must be non-negative.
type MultinomialNB struct {
	state *model.StateManager

	// Hyperparameters
	alpha    float64 // additive (Laplace/Lidstone) smoothing
	fitPrior bool    // learn class priors; uniform otherwise

	// Learned parameters
	classes_        []float64
	classCount_     []float64   // samples per class
	featureCount_   [][]float64 // [class][feature] summed values
	classLogPrior_  []float64
	featureLogProb_ [][]float64
	nFeatures_      int
	nSamplesSeen_   int
}

// Option configures a MultinomialNB.
type Option func(*MultinomialNB)

// WithAlpha sets the smoothing parameter. Values below 1e-10 are raised
// to 1e-10.
func WithAlpha(alpha float64) Option {
	return func(nb *MultinomialNB) { nb.alpha = alpha }
}

// WithFitPrior sets whether class priors are learned from the data.
func WithFitPrior(fit bool) Option {
	return func(nb *MultinomialNB) { nb.fitPrior = fit }
}

// NewMultinomialNB creates a MultinomialNB with alpha=1 and learned priors.
func NewMultinomialNB(opts ...Option) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit learns class priors and per-class feature probabilities from scratch.
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	nb.reset()
	return nb.partialFit("MultinomialNB.Fit", X, y, model.UniqueLabels(y))
}

// PartialFit updates the model with one batch. classes must list every
// label on the first call; nil takes the labels of this batch. Later calls
// ignore classes.
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) error {
	var labels []float64
	if nb.classes_ == nil {
		if classes == nil {
			labels = model.UniqueLabels(y)
		} else {
			labels = make([]float64, len(classes))
			for i, c := range classes {
				labels[i] = float64(c)
			}
			sort.Float64s(labels)
		}
	}
	return nb.partialFit("MultinomialNB.PartialFit", X, y, labels)
}

func (nb *MultinomialNB) reset() {
	nb.state.Reset()
	nb.classes_ = nil
	nb.classCount_ = nil
	nb.featureCount_ = nil
	nb.nSamplesSeen_ = 0
}

func (nb *MultinomialNB) partialFit(op string, X, y mat.Matrix, labels []float64) error {
	if nb.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", nb.alpha)
	}
	nSamples, nFeatures, err := model.CheckXY(op, X, y)
	if err != nil {
		return err
	}
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			if X.At(i, j) < 0 {
				return errors.NewValueError(op, fmt.Sprintf("negative value %g at (%d, %d); MultinomialNB needs non-negative features", X.At(i, j), i, j))
			}
		}
	}

	if nb.classes_ == nil {
		nb.classes_ = labels
		nb.nFeatures_ = nFeatures
		nb.classCount_ = make([]float64, len(labels))
		nb.featureCount_ = make([][]float64, len(labels))
		for k := range nb.featureCount_ {
			nb.featureCount_[k] = make([]float64, nFeatures)
		}
	} else if nFeatures != nb.nFeatures_ {
		return errors.NewDimensionError(op, nb.nFeatures_, nFeatures, 1)
	}

	index := make(map[float64]int, len(nb.classes_))
	for k, c := range nb.classes_ {
		index[c] = k
	}
	for i := 0; i < nSamples; i++ {
		k, ok := index[y.At(i, 0)]
		if !ok {
			return errors.NewValueError(op, fmt.Sprintf("label %g is not in classes %v", y.At(i, 0), nb.classes_))
		}
		nb.classCount_[k]++
		for j := 0; j < nFeatures; j++ {
			nb.featureCount_[k][j] += X.At(i, j)
		}
	}
	nb.nSamplesSeen_ += nSamples

	nb.updateLogProbs()
	nb.state.SetFitted(nFeatures, nb.nSamplesSeen_)
	return nil
}

func (nb *MultinomialNB) updateLogProbs() {
	alpha := math.Max(nb.alpha, minAlpha)
	nClasses := len(nb.classes_)

	nb.featureLogProb_ = make([][]float64, nClasses)
	for k := range nb.featureCount_ {
		smoothed := make([]float64, nb.nFeatures_)
		for j, c := range nb.featureCount_[k] {
			smoothed[j] = c + alpha
		}
		logTotal := math.Log(floats.Sum(smoothed))
		for j := range smoothed {
			smoothed[j] = math.Log(smoothed[j]) - logTotal
		}
		nb.featureLogProb_[k] = smoothed
	}

	nb.classLogPrior_ = make([]float64, nClasses)
	total := floats.Sum(nb.classCount_)
	for k, c := range nb.classCount_ {
		if nb.fitPrior {
			nb.classLogPrior_[k] = math.Log(c) - math.Log(total)
		} else {
			nb.classLogPrior_[k] = -math.Log(float64(nClasses))
		}
	}
}

// jointLogLikelihood returns log P(c) + sum_j x_j log P(x_j|c).
func (nb *MultinomialNB) jointLogLikelihood(method string, X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted("MultinomialNB", method); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewValueError("MultinomialNB."+method, "X must not be nil")
	}
	rows, cols := X.Dims()
	if err := nb.state.CheckFeatures("MultinomialNB."+method, cols); err != nil {
		return nil, err
	}
	jll := mat.NewDense(rows, len(nb.classes_), nil)
	for i := 0; i < rows; i++ {
		for k := range nb.classes_ {
			s := nb.classLogPrior_[k]
			for j := 0; j < cols; j++ {
				if v := X.At(i, j); v != 0 {
					s += v * nb.featureLogProb_[k][j]
				}
			}
			jll.Set(i, k, s)
		}
	}
	return jll, nil
}

// PredictLogProba returns normalised log-probabilities, one column per class.
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("PredictLogProba", X)
	if err != nil {
		return nil, err
	}
	rows, _ := jll.Dims()
	for i := 0; i < rows; i++ {
		row := jll.RawRowView(i)
		norm := floats.LogSumExp(row)
		floats.AddConst(-norm, row)
	}
	return jll, nil
}

// PredictProba returns class probabilities; columns follow Classes().
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	proba := mat.DenseCopyOf(logProba)
	proba.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, proba)
	return proba, nil
}

// Predict returns the most probable class per row.
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood("Predict", X)
	if err != nil {
		return nil, err
	}
	rows, _ := jll.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred.Set(i, 0, nb.classes_[floats.MaxIdx(jll.RawRowView(i))])
	}
	return pred, nil
}

// Score returns the mean accuracy on X and y.
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := pred.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

// Classes returns the sorted class labels.
func (nb *MultinomialNB) Classes() []float64 {
	return append([]float64(nil), nb.classes_...)
}

// NSamplesSeen returns the number of samples consumed by Fit/PartialFit.
func (nb *MultinomialNB) NSamplesSeen() int { return nb.nSamplesSeen_ }

// IsFitted reports whether the model has seen data.
func (nb *MultinomialNB) IsFitted() bool { return nb.state.IsFitted() }

// GetParams returns the model hyperparameters.
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":     nb.alpha,
		"fit_prior": nb.fitPrior,
	}
}

// Clone returns an unfitted copy with the same hyperparameters.
func (nb *MultinomialNB) Clone() model.Estimator {
	return NewMultinomialNB(WithAlpha(nb.alpha), WithFitPrior(nb.fitPrior))
}

func (nb *MultinomialNB) String() string {
	return fmt.Sprintf("MultinomialNB(alpha=%g, fit_prior=%t)", nb.alpha, nb.fitPrior)
}
