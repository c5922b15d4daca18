package preprocessing

import (
	"testing"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/sklearn/linear_model"
	"github.com/YuminosukeSato/scieval/sklearn/model_selection"
	"github.com/YuminosukeSato/scieval/sklearn/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func wideSeparable(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		X.Set(i, 0, 1000*label+float64(i))
		X.Set(i, 1, 0.001*float64(i%7))
		y.Set(i, 0, label)
	}
	return X, y
}

func TestPipeline_ImplementsClassifier(t *testing.T) {
	var _ model.Classifier = NewPipeline(NewStandardScalerDefault(), tree.NewDecisionTreeClassifier())
	assert.Equal(t, "Pipeline", model.Name(NewPipeline(nil, nil)))
}

func TestPipeline_FitPredict(t *testing.T) {
	X, y := wideSeparable(40)
	pipe := NewPipeline(NewStandardScalerDefault(), tree.NewDecisionTreeClassifier())
	require.NoError(t, pipe.Fit(X, y))

	pred, err := pipe.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, pred))

	proba, err := pipe.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 40, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{0, 1}, pipe.Classes())

	scaler, _ := pipe.Steps()
	assert.True(t, scaler.(*StandardScaler).IsFitted())
}

func TestPipeline_Clone(t *testing.T) {
	X, y := wideSeparable(20)
	pipe := NewPipeline(NewMinMaxScalerDefault(), tree.NewDecisionTreeClassifier(tree.WithMaxDepth(2)))
	require.NoError(t, pipe.Fit(X, y))

	clone, ok := pipe.Clone().(*Pipeline)
	require.True(t, ok)
	scaler, clf := clone.Steps()
	assert.False(t, scaler.(*MinMaxScaler).IsFitted())
	assert.False(t, clf.(*tree.DecisionTreeClassifier).IsFitted())
	assert.Equal(t, 2, clf.(*tree.DecisionTreeClassifier).GetParams()["max_depth"])

	_, err := clone.Predict(X)
	assert.Error(t, err)
}

func TestPipeline_MissingStep(t *testing.T) {
	X, y := wideSeparable(10)
	assert.Error(t, NewPipeline(nil, tree.NewDecisionTreeClassifier()).Fit(X, y))
	assert.Error(t, NewPipeline(NewStandardScalerDefault(), nil).Fit(X, y))
	assert.Nil(t, NewPipeline(NewStandardScalerDefault(), nil).Classes())
}

func TestPipeline_CrossValidation(t *testing.T) {
	// 生の特徴量はスケールが大きく離れているが、各フォールドで標準化される
	X, y := wideSeparable(60)
	pipe := NewPipeline(NewStandardScalerDefault(), linear_model.NewLogisticRegression())

	cv := model_selection.NewStratifiedKFold(3, false, 0)
	scores, err := model_selection.CrossValScore(pipe, X, y, cv, "accuracy")
	require.NoError(t, err)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.9)
	}
}
