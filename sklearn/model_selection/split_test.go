package model_selection

import (
	"sort"
	"testing"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rangeX(n int) *mat.Dense {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return mat.NewDense(n, 1, data)
}

func labels(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

// assertPartition checks that test sets are disjoint, cover every sample
// and that train is the complement of test in each fold.
func assertPartition(t *testing.T, folds []Fold, n int) {
	t.Helper()
	seen := make(map[int]int)
	for f, fold := range folds {
		assert.True(t, sort.IntsAreSorted(fold.TestIndices), "fold %d test not sorted", f)
		assert.True(t, sort.IntsAreSorted(fold.TrainIndices), "fold %d train not sorted", f)
		assert.Equal(t, n, len(fold.TestIndices)+len(fold.TrainIndices))
		inTest := make(map[int]bool)
		for _, idx := range fold.TestIndices {
			seen[idx]++
			inTest[idx] = true
		}
		for _, idx := range fold.TrainIndices {
			assert.False(t, inTest[idx], "fold %d: %d in train and test", f, idx)
		}
	}
	assert.Len(t, seen, n)
	for idx, c := range seen {
		assert.Equal(t, 1, c, "sample %d tested %d times", idx, c)
	}
}

func TestKFold(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		k         int
		wantSizes []int
	}{
		{"even", 9, 3, []int{3, 3, 3}},
		{"remainder goes to first folds", 10, 3, []int{4, 3, 3}},
		{"leave one out", 4, 4, []int{1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := NewKFold(tt.k, false, 0).Split(rangeX(tt.n), nil)
			require.NoError(t, err)
			require.Len(t, folds, tt.k)
			assertPartition(t, folds, tt.n)
			for f, size := range tt.wantSizes {
				assert.Len(t, folds[f].TestIndices, size)
			}
		})
	}

	folds, err := NewKFold(3, false, 0).Split(rangeX(10), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0].TestIndices)
	assert.Equal(t, []int{7, 8, 9}, folds[2].TestIndices)
}

func TestKFoldShuffleIsSeeded(t *testing.T) {
	X := rangeX(20)
	a, err := NewKFold(4, true, 100).Split(X, nil)
	require.NoError(t, err)
	b, err := NewKFold(4, true, 100).Split(X, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assertPartition(t, a, 20)

	plain, err := NewKFold(4, false, 100).Split(X, nil)
	require.NoError(t, err)
	assert.NotEqual(t, plain, a)
}

func TestKFoldErrors(t *testing.T) {
	_, err := NewKFold(1, false, 0).Split(rangeX(5), nil)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = NewKFold(6, false, 0).Split(rangeX(5), nil)
	assert.True(t, errors.As(err, &ve))

	_, err = NewKFold(2, false, 0).Split(nil, nil)
	assert.Error(t, err)
}

func TestStratifiedKFold(t *testing.T) {
	y := labels(0, 0, 0, 0, 0, 0, 1, 1, 1, 1)
	folds, err := NewStratifiedKFold(2, false, 0).Split(rangeX(10), y)
	require.NoError(t, err)
	require.Len(t, folds, 2)
	assertPartition(t, folds, 10)

	assert.Equal(t, []int{0, 1, 2, 6, 7}, folds[0].TestIndices)
	assert.Equal(t, []int{3, 4, 5, 8, 9}, folds[1].TestIndices)
}

func TestStratifiedKFoldClassOrder(t *testing.T) {
	// クラスは値の大小ではなく y での初出順に配られる
	tests := []struct {
		name     string
		y        []float64
		wantTest [][]int
	}{
		{
			name:     "larger label first",
			y:        []float64{1, 0, 1, 0, 1, 0},
			wantTest: [][]int{{0, 1, 2}, {3, 4, 5}},
		},
		{
			name:     "smaller label first",
			y:        []float64{0, 1, 0, 1, 0, 1},
			wantTest: [][]int{{0, 1, 2}, {3, 4, 5}},
		},
		{
			name:     "grouped labels",
			y:        []float64{1, 1, 1, 1, 0, 0, 0, 0},
			wantTest: [][]int{{0, 1, 4, 5}, {2, 3, 6, 7}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := NewStratifiedKFold(2, false, 0).Split(rangeX(len(tt.y)), labels(tt.y...))
			require.NoError(t, err)
			require.Len(t, folds, len(tt.wantTest))
			assertPartition(t, folds, len(tt.y))
			for f, want := range tt.wantTest {
				assert.Equal(t, want, folds[f].TestIndices, "fold %d", f)
			}
		})
	}
}

func TestStratifiedKFoldKeepsProportions(t *testing.T) {
	// 2:1 のクラス比
	values := make([]float64, 30)
	for i := range values {
		if i%3 == 2 {
			values[i] = 1
		}
	}
	folds, err := NewStratifiedKFold(5, true, 7).Split(rangeX(30), labels(values...))
	require.NoError(t, err)
	assertPartition(t, folds, 30)
	for _, fold := range folds {
		pos := 0
		for _, idx := range fold.TestIndices {
			if values[idx] == 1 {
				pos++
			}
		}
		assert.Len(t, fold.TestIndices, 6)
		assert.Equal(t, 2, pos)
	}
}

func TestStratifiedKFoldErrors(t *testing.T) {
	t.Run("every class smaller than n_splits", func(t *testing.T) {
		_, err := NewStratifiedKFold(3, false, 0).Split(rangeX(4), labels(0, 0, 1, 1))
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("least populated class warns", func(t *testing.T) {
		var warnings []error
		errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
		t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

		_, err := NewStratifiedKFold(3, false, 0).Split(rangeX(6), labels(0, 0, 0, 0, 0, 1))
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		var sw *errors.SplitWarning
		assert.True(t, errors.As(warnings[0], &sw))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewStratifiedKFold(2, false, 0).Split(rangeX(4), labels(0, 1))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})
}

func TestRepeatedKFold(t *testing.T) {
	rkf := NewRepeatedKFold(5, 3, 100)
	assert.Equal(t, 15, rkf.NSplits())

	folds, err := rkf.Split(rangeX(20), nil)
	require.NoError(t, err)
	require.Len(t, folds, 15)
	for rep := 0; rep < 3; rep++ {
		assertPartition(t, folds[rep*5:(rep+1)*5], 20)
	}
	assert.NotEqual(t, folds[0].TestIndices, folds[5].TestIndices)

	again, err := NewRepeatedKFold(5, 3, 100).Split(rangeX(20), nil)
	require.NoError(t, err)
	assert.Equal(t, folds, again)

	_, err = NewRepeatedKFold(5, 0, 100).Split(rangeX(20), nil)
	assert.Error(t, err)
}

func TestCheckCV(t *testing.T) {
	cv, err := CheckCV(5, true)
	require.NoError(t, err)
	assert.IsType(t, &StratifiedKFold{}, cv)
	assert.Equal(t, 5, cv.NSplits())

	cv, err = CheckCV(3, false)
	require.NoError(t, err)
	assert.IsType(t, &KFold{}, cv)

	_, err = CheckCV(1, true)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}
