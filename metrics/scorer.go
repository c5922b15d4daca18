package metrics

import (
	"sort"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Scoring names accepted by GetScorer. Higher is better for all of them.
const (
	ScoringAccuracy          = "accuracy"
	ScoringPrecisionWeighted = "precision_weighted"
	ScoringRecallWeighted    = "recall_weighted"
	ScoringF1Weighted        = "f1_weighted"
	ScoringPrecisionMacro    = "precision_macro"
	ScoringRecallMacro       = "recall_macro"
	ScoringF1Macro           = "f1_macro"
	ScoringROCAUC            = "roc_auc"
	ScoringNegLogLoss        = "neg_log_loss"
)

// Scorer evaluates a fitted estimator on held-out data.
type Scorer interface {
	Name() string
	Score(est model.Estimator, X, y mat.Matrix) (float64, error)
}

// labelScorer scores hard predictions.
type labelScorer struct {
	name string
	fn   func(yTrue, yPred []float64) (float64, error)
}

func (s *labelScorer) Name() string { return s.name }

func (s *labelScorer) Score(est model.Estimator, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, errors.Wrapf(err, "scorer %s: predict", s.name)
	}
	yTrue, yPred := model.Column(y), model.Column(pred)
	return s.fn(yTrue, yPred)
}

// probaScorer scores class probabilities; est must be a model.Classifier.
type probaScorer struct {
	name string
	fn   func(yTrue []float64, proba mat.Matrix, classes []float64) (float64, error)
}

func (s *probaScorer) Name() string { return s.name }

func (s *probaScorer) Score(est model.Estimator, X, y mat.Matrix) (float64, error) {
	clf, ok := est.(model.Classifier)
	if !ok {
		return 0, errors.Wrapf(errors.ErrNotProbabilistic, "scorer %s: %s", s.name, model.Name(est))
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		return 0, errors.Wrapf(err, "scorer %s: predict_proba", s.name)
	}
	return s.fn(model.Column(y), proba, clf.Classes())
}

func averaged(average string, pick func(p, r, f float64) float64) func(yTrue, yPred []float64) (float64, error) {
	return func(yTrue, yPred []float64) (float64, error) {
		p, r, f, err := PrecisionRecallFScore(yTrue, yPred, average)
		if err != nil {
			return 0, err
		}
		return pick(p, r, f), nil
	}
}

func pickPrecision(p, _, _ float64) float64 { return p }
func pickRecall(_, r, _ float64) float64    { return r }
func pickF1(_, _, f float64) float64        { return f }

func accuracy(yTrue, yPred []float64) (float64, error) {
	return Accuracy(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
}

// binaryROCAUC uses the probability of the greater class label as the
// decision score, matching scikit-learn's roc_auc scorer.
func binaryROCAUC(yTrue []float64, proba mat.Matrix, classes []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("roc_auc", "empty vector")
	}
	if len(classes) > 2 {
		return 0, errors.Mark(errors.NewValueError("roc_auc", "multiclass format is not supported"), errors.ErrMulticlass)
	}
	if len(classes) < 2 {
		return 0, errors.NewValueError("roc_auc", "estimator saw only one class during fit; ROC AUC is not defined")
	}
	rows, _ := proba.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = proba.At(i, 1)
	}
	return ROCAUCScore(yTrue, scores, classes[1])
}

func negLogLoss(yTrue []float64, proba mat.Matrix, classes []float64) (float64, error) {
	loss, err := LogLoss(yTrue, proba, classes)
	return -loss, err
}

var scorers = map[string]Scorer{
	ScoringAccuracy:          &labelScorer{name: ScoringAccuracy, fn: accuracy},
	ScoringPrecisionWeighted: &labelScorer{name: ScoringPrecisionWeighted, fn: averaged(AverageWeighted, pickPrecision)},
	ScoringRecallWeighted:    &labelScorer{name: ScoringRecallWeighted, fn: averaged(AverageWeighted, pickRecall)},
	ScoringF1Weighted:        &labelScorer{name: ScoringF1Weighted, fn: averaged(AverageWeighted, pickF1)},
	ScoringPrecisionMacro:    &labelScorer{name: ScoringPrecisionMacro, fn: averaged(AverageMacro, pickPrecision)},
	ScoringRecallMacro:       &labelScorer{name: ScoringRecallMacro, fn: averaged(AverageMacro, pickRecall)},
	ScoringF1Macro:           &labelScorer{name: ScoringF1Macro, fn: averaged(AverageMacro, pickF1)},
	ScoringROCAUC:            &probaScorer{name: ScoringROCAUC, fn: binaryROCAUC},
	ScoringNegLogLoss:        &probaScorer{name: ScoringNegLogLoss, fn: negLogLoss},
}

// GetScorer returns the scorer registered under name.
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[name]
	if !ok {
		return nil, errors.NewValidationError("scoring", "unknown scorer; see metrics.ScorerNames()", name)
	}
	return s, nil
}

// ScorerNames returns the registered scoring names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for name := range scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
