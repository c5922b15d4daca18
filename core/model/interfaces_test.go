package model

import (
	"testing"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type stubEstimator struct{}

func (stubEstimator) Fit(X, y mat.Matrix) error                 { return nil }
func (stubEstimator) Predict(X mat.Matrix) (mat.Matrix, error) { return X, nil }
func (stubEstimator) Clone() Estimator                         { return stubEstimator{} }

func TestName(t *testing.T) {
	assert.Equal(t, "stubEstimator", Name(stubEstimator{}))
	assert.Equal(t, "StateManager", Name(&StateManager{}))
}

func TestIsClassifier(t *testing.T) {
	assert.False(t, IsClassifier(stubEstimator{}))
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("DecisionTreeClassifier", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	s.SetFitted(4, 100)
	assert.NoError(t, s.RequireFitted("DecisionTreeClassifier", "Predict"))
	assert.NoError(t, s.CheckFeatures("Predict", 4))
	assert.Error(t, s.CheckFeatures("Predict", 3))

	f, n := s.GetDimensions()
	assert.Equal(t, 4, f)
	assert.Equal(t, 100, n)

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestCheckXY(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	n, f, err := CheckXY("Fit", X, mat.NewDense(3, 1, []float64{0, 1, 0}))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, f)

	_, _, err = CheckXY("Fit", X, mat.NewDense(2, 1, []float64{0, 1}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, _, err = CheckXY("Fit", X, mat.NewDense(3, 2, nil))
	assert.Error(t, err)

	_, _, err = CheckXY("Fit", nil, nil)
	assert.Error(t, err)
}

func TestUniqueLabelsAndColumn(t *testing.T) {
	y := mat.NewDense(5, 1, []float64{2, 0, 1, 2, 0})
	assert.Equal(t, []float64{0, 1, 2}, UniqueLabels(y))
	assert.Equal(t, []float64{2, 0, 1, 2, 0}, Column(y))
}
