package model

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CheckXY validates a feature matrix and a label column before fitting.
// It returns the number of samples and features.
func CheckXY(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewValueError(op, "X and y must not be nil")
	}
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector (n×1 matrix)")
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, errors.NewValueError(op, "y contains NaN or Inf")
		}
	}
	return nSamples, nFeatures, nil
}

// UniqueLabels returns the sorted distinct values of the first column of y.
func UniqueLabels(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	seen := make(map[float64]struct{})
	for i := 0; i < rows; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	return labels
}

// Column copies the first column of m into a slice.
func Column(m mat.Matrix) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = m.At(i, 0)
	}
	return out
}
