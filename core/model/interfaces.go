// Package model provides the interfaces shared by estimators and the
// model_selection / evaluation packages.
package model

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Classifier is an Estimator that predicts discrete labels and can report
// per-class probabilities. Columns of PredictProba follow Classes().
type Classifier interface {
	Estimator

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class labels seen during fitting.
	Classes() []float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// IsClassifier reports whether est can be treated as a classifier. It
// decides between StratifiedKFold and KFold when cv is given as an integer.
func IsClassifier(est Estimator) bool {
	_, ok := est.(Classifier)
	return ok
}

// Name returns the bare type name of est, e.g. "DecisionTreeClassifier".
func Name(est interface{}) string {
	name := fmt.Sprintf("%T", est)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}
