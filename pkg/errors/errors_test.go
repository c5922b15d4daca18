package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		expected string
	}{
		{
			name:     "with wrapped error",
			op:       "CrossValScore",
			kind:     "fit failed",
			err:      fmt.Errorf("singular matrix"),
			expected: "scieval: CrossValScore: fit failed: singular matrix",
		},
		{
			name:     "without wrapped error",
			op:       "LearningCurve",
			kind:     "no folds",
			expected: "scieval: LearningCurve: no folds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.expected, err.Error())

			var modelErr *ModelError
			require.True(t, As(err, &modelErr))
			assert.Equal(t, tt.op, modelErr.Op)
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("CrossValScore", 100, 99, 0)
	assert.Contains(t, err.Error(), "axis 0 (rows)")
	assert.Contains(t, err.Error(), "Expected 100, got 99")

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 99, dimErr.Got)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("DecisionTreeClassifier", "Predict")
	assert.Contains(t, err.Error(), "DecisionTreeClassifier")
	assert.Contains(t, err.Error(), "Predict()")

	var nf *NotFittedError
	assert.True(t, As(err, &nf))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("scoring", "unknown scorer", "recall_weird")
	assert.Equal(t,
		"scieval: validation failed for parameter 'scoring': unknown scorer (got: recall_weird)",
		err.Error())
}

func TestFoldErrorUnwrap(t *testing.T) {
	cause := NewValueError("Fit", "only one class present")
	err := NewFoldError(3, "fit", cause)

	assert.Contains(t, err.Error(), "fold 3: fit failed")

	var fe *FoldError
	require.True(t, As(err, &fe))
	assert.Equal(t, 3, fe.Fold)

	var ve *ValueError
	assert.True(t, As(err, &ve), "FoldError must unwrap to its cause")
}

func TestFitFailedWarning(t *testing.T) {
	cause := NewValueError("Fit", "only one class present")
	w := NewFitFailedWarning(2, "fit", cause)

	assert.Equal(t, "fold 2 failed during fit, score set to NaN: "+cause.Error(), w.Error())
	var ve *ValueError
	assert.True(t, As(w, &ve))
}

func TestMarkKeepsType(t *testing.T) {
	err := Mark(NewValueError("roc_auc", "multiclass format is not supported"), ErrMulticlass)
	assert.True(t, Is(err, ErrMulticlass))
	assert.False(t, Is(err, ErrNotProbabilistic))

	var ve *ValueError
	assert.True(t, As(err, &ve))
	assert.True(t, Is(NewFoldError(1, "score", err), ErrMulticlass))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "loading dataset")
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "loading dataset")

	wrappedf := Wrapf(ErrNotProbabilistic, "scorer %s", "roc_auc")
	assert.True(t, Is(wrappedf, ErrNotProbabilistic))
	assert.Contains(t, wrappedf.Error(), "scorer roc_auc")
}

func TestWarnRouting(t *testing.T) {
	var (
		mu       sync.Mutex
		received []error
	)
	SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, w)
	})
	defer SetWarningHandler(func(error) {})

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	Warn(NewSplitWarning("StratifiedKFold", "least populated class has 2 members"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Contains(t, received[0].Error(), "'precision' is ill-defined")
	assert.Contains(t, received[1].Error(), "StratifiedKFold")

	// zerolog sink takes precedence
	var zl []error
	SetZerologWarnFunc(func(w error) { zl = append(zl, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("LogisticRegression", 100, ""))
	assert.Len(t, zl, 1)
	assert.Len(t, received, 2)
}
