package tree

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestImpurity(t *testing.T) {
	tests := []struct {
		name      string
		counts    []float64
		wantGini  float64
		wantEntro float64
	}{
		{"pure", []float64{4, 0}, 0, 0},
		{"balanced binary", []float64{2, 2}, 0.5, 1},
		{"three classes", []float64{1, 1, 1}, 2.0 / 3, math.Log2(3)},
		{"empty", []float64{0, 0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total float64
			for _, c := range tt.counts {
				total += c
			}
			assert.InDelta(t, tt.wantGini, gini(tt.counts, total), 1e-12)
			assert.InDelta(t, tt.wantEntro, entropy(tt.counts, total), 1e-12)
		})
	}
}

func TestDecisionTreeClassifier_ImplementsClassifier(t *testing.T) {
	var _ model.Classifier = NewDecisionTreeClassifier()
	assert.True(t, model.IsClassifier(NewDecisionTreeClassifier()))
	assert.Equal(t, "DecisionTreeClassifier", model.Name(NewDecisionTreeClassifier()))
}

func TestDecisionTreeClassifier_Clone(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier(WithCriterion("entropy"), WithMaxDepth(3), WithMinSamplesLeaf(2))
	require.NoError(t, dt.Fit(X, y))

	clone, ok := dt.Clone().(*DecisionTreeClassifier)
	require.True(t, ok)
	assert.Equal(t, dt.GetParams(), clone.GetParams())
	assert.False(t, clone.IsFitted())
	assert.True(t, dt.IsFitted())

	_, err := clone.Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestDecisionTreeClassifier_ClassesAndLabels(t *testing.T) {
	// 非連続なラベルでも列順は Classes() に従う
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{7, 7, 7, -3, -3, -3})

	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, []float64{-3, 7}, dt.Classes())

	proba, err := dt.PredictProba(mat.NewDense(2, 1, []float64{0.5, 11.5}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, proba.At(0, 1))
	assert.Equal(t, 1.0, proba.At(1, 0))

	pred, err := dt.Predict(mat.NewDense(1, 1, []float64{11}))
	require.NoError(t, err)
	assert.Equal(t, -3.0, pred.At(0, 0))
}

func TestDecisionTreeClassifier_Deterministic(t *testing.T) {
	// 12特徴量: 並列探索でも結果が変わらない
	n, f := 60, 12
	X := mat.NewDense(n, f, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			X.Set(i, j, float64((i*(j+3)+j)%17))
		}
		y.Set(i, 0, float64((i*7)%3))
	}

	a := NewDecisionTreeClassifier(WithMaxDepth(4))
	b := NewDecisionTreeClassifier(WithMaxDepth(4))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.PredictProba(X)
	require.NoError(t, err)
	pb, err := b.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb))
	assert.Equal(t, a.GetFeatureImportances(), b.GetFeatureImportances())
	assert.Equal(t, a.GetNLeaves(), b.GetNLeaves())
}

func TestDecisionTreeClassifier_MinImpurityDecrease(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 1})

	dt := NewDecisionTreeClassifier(WithMinImpurityDecrease(0.4))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 1, dt.GetNLeaves())
	assert.Equal(t, 0, dt.GetDepth())
	assert.Equal(t, []float64{0}, dt.GetFeatureImportances())
}

func TestDecisionTreeClassifier_Errors(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 1, 1, 2, 2, 3, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	t.Run("bad criterion", func(t *testing.T) {
		err := NewDecisionTreeClassifier(WithCriterion("mse")).Fit(X, y)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("bad min_samples_split", func(t *testing.T) {
		err := NewDecisionTreeClassifier(WithMinSamplesSplit(1)).Fit(X, y)
		assert.Error(t, err)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		err := NewDecisionTreeClassifier().Fit(X, mat.NewDense(3, 1, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("wrong feature count at predict", func(t *testing.T) {
		dt := NewDecisionTreeClassifier()
		require.NoError(t, dt.Fit(X, y))
		_, err := dt.Predict(mat.NewDense(1, 3, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("SetParams rejects unknown key and bad type", func(t *testing.T) {
		dt := NewDecisionTreeClassifier()
		assert.Error(t, dt.SetParams(map[string]interface{}{"splitter": "best"}))
		assert.Error(t, dt.SetParams(map[string]interface{}{"max_depth": "3"}))
		assert.Error(t, dt.SetParams(map[string]interface{}{"max_depth": 3, "min_samples_leaf": 0}))
		assert.Equal(t, -1, dt.GetParams()["max_depth"])
	})
}
