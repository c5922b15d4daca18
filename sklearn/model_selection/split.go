// Package model_selection provides cross-validation splitters and the
// scoring loops built on them (CrossValScore, CrossValidate, LearningCurve).
//
// Splitters follow scikit-learn's fold layout so that scores computed here
// line up with the ones a notebook would report for the same data.
package model_selection

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Fold holds the train and test row indices of one split. Both slices are
// sorted in ascending order.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates cross-validation folds.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	NSplits() int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	nSplits     int
	shuffle     bool
	randomState int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomState int) *KFold {
	return &KFold{nSplits: nSplits, shuffle: shuffle, randomState: randomState}
}

// NSplits returns the number of splits
func (kf *KFold) NSplits() int {
	return kf.nSplits
}

func (kf *KFold) String() string {
	return fmt.Sprintf("KFold(n_splits=%d, shuffle=%t, random_state=%d)", kf.nSplits, kf.shuffle, kf.randomState)
}

// Split generates train/test indices for each fold. The first
// nSamples % NSplits folds receive one extra test sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	if X == nil {
		return nil, errors.NewValueError("KFold.Split", "X must not be nil")
	}
	nSamples, _ := X.Dims()
	if err := checkNSplits("KFold", kf.nSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.shuffle {
		r := newRand(kf.randomState)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testFold := make([]int, nSamples)
	foldSize := nSamples / kf.nSplits
	remainder := nSamples % kf.nSplits
	current := 0
	for f := 0; f < kf.nSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			testFold[idx] = f
		}
		current += size
	}
	return foldsFromAssignment(testFold, kf.nSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation. Each fold
// keeps the class proportions of y as closely as possible.
type StratifiedKFold struct {
	nSplits     int
	shuffle     bool
	randomState int
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomState int) *StratifiedKFold {
	return &StratifiedKFold{nSplits: nSplits, shuffle: shuffle, randomState: randomState}
}

// NSplits returns the number of splits
func (skf *StratifiedKFold) NSplits() int {
	return skf.nSplits
}

func (skf *StratifiedKFold) String() string {
	return fmt.Sprintf("StratifiedKFold(n_splits=%d, shuffle=%t, random_state=%d)", skf.nSplits, skf.shuffle, skf.randomState)
}

// Split generates stratified train/test indices for each fold.
//
// Classes are ordered by first appearance in y. Per-class fold sizes come
// from dealing the labels, grouped in that class order, round-robin over the
// folds; within a class, samples keep their original order (or a seeded
// shuffle of it) and fill fold 0 first.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	if X == nil || y == nil {
		return nil, errors.NewValueError("StratifiedKFold.Split", "X and y must not be nil")
	}
	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}
	k := skf.nSplits
	if err := checkNSplits("StratifiedKFold", k, nSamples); err != nil {
		return nil, err
	}

	// クラスごとのインデックス (クラスは y での初出順)
	classIndices := make(map[float64][]int)
	var classes []float64
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if _, seen := classIndices[label]; !seen {
			classes = append(classes, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	minCount, maxCount := nSamples, 0
	for _, c := range classes {
		n := len(classIndices[c])
		if n < minCount {
			minCount = n
		}
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount < k {
		return nil, errors.NewValidationError("n_splits",
			"cannot be greater than the number of members in each class", k)
	}
	if minCount < k {
		errors.Warn(errors.NewSplitWarning("StratifiedKFold", fmt.Sprintf(
			"the least populated class in y has only %d members, which is less than n_splits=%d", minCount, k)))
	}

	// 初出順に並べたラベルをラウンドロビンで配り、各foldのクラス別件数を決める
	allocation := make([][]int, k)
	for f := range allocation {
		allocation[f] = make([]int, len(classes))
	}
	pos := 0
	for ci, c := range classes {
		for range classIndices[c] {
			allocation[pos%k][ci]++
			pos++
		}
	}

	var r *rand.Rand
	if skf.shuffle {
		r = newRand(skf.randomState)
	}
	testFold := make([]int, nSamples)
	for ci, c := range classes {
		assignment := make([]int, 0, len(classIndices[c]))
		for f := 0; f < k; f++ {
			for j := 0; j < allocation[f][ci]; j++ {
				assignment = append(assignment, f)
			}
		}
		if r != nil {
			r.Shuffle(len(assignment), func(i, j int) {
				assignment[i], assignment[j] = assignment[j], assignment[i]
			})
		}
		for j, idx := range classIndices[c] {
			testFold[idx] = assignment[j]
		}
	}
	return foldsFromAssignment(testFold, k), nil
}

// RepeatedKFold repeats shuffled KFold nRepeats times with a different
// permutation each time. Folds of repetition r occupy positions
// [r*nSplits, (r+1)*nSplits) of the result.
type RepeatedKFold struct {
	nSplits     int
	nRepeats    int
	randomState int
}

// NewRepeatedKFold creates a new repeated k-fold splitter
func NewRepeatedKFold(nSplits, nRepeats, randomState int) *RepeatedKFold {
	return &RepeatedKFold{nSplits: nSplits, nRepeats: nRepeats, randomState: randomState}
}

// NSplits returns the total number of folds over all repetitions.
func (rkf *RepeatedKFold) NSplits() int {
	return rkf.nSplits * rkf.nRepeats
}

func (rkf *RepeatedKFold) String() string {
	return fmt.Sprintf("RepeatedKFold(n_splits=%d, n_repeats=%d, random_state=%d)", rkf.nSplits, rkf.nRepeats, rkf.randomState)
}

// Split generates the folds of every repetition.
func (rkf *RepeatedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	if rkf.nRepeats < 1 {
		return nil, errors.NewValidationError("n_repeats", "must be at least 1", rkf.nRepeats)
	}
	// 各繰り返しのシードは randomState から決定的に導出する
	seeds := newRand(rkf.randomState)
	folds := make([]Fold, 0, rkf.NSplits())
	for rep := 0; rep < rkf.nRepeats; rep++ {
		kf := NewKFold(rkf.nSplits, true, int(seeds.Int32()))
		repFolds, err := kf.Split(X, y)
		if err != nil {
			return nil, errors.Wrapf(err, "repetition %d", rep)
		}
		folds = append(folds, repFolds...)
	}
	return folds, nil
}

// CheckCV returns the splitter scikit-learn uses for an integer cv:
// StratifiedKFold for classifiers, KFold otherwise, both without shuffling.
func CheckCV(cv int, classifier bool) (Splitter, error) {
	if cv < 2 {
		return nil, errors.NewValidationError("cv", "must be at least 2", cv)
	}
	if classifier {
		return NewStratifiedKFold(cv, false, 0), nil
	}
	return NewKFold(cv, false, 0), nil
}

func checkNSplits(splitter string, nSplits, nSamples int) error {
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", splitter+" requires at least 2 splits", nSplits)
	}
	if nSamples == 0 {
		return errors.NewModelError(splitter+".Split", "empty data", errors.ErrEmptyData)
	}
	if nSplits > nSamples {
		return errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot be greater than the number of samples (%d)", nSamples), nSplits)
	}
	return nil
}

// foldsFromAssignment builds sorted train/test index lists from a per-sample
// test fold id.
func foldsFromAssignment(testFold []int, k int) []Fold {
	folds := make([]Fold, k)
	for f := range folds {
		folds[f] = Fold{TrainIndices: make([]int, 0, len(testFold)), TestIndices: make([]int, 0, len(testFold)/k+1)}
	}
	for idx, tf := range testFold {
		for f := range folds {
			if f == tf {
				folds[f].TestIndices = append(folds[f].TestIndices, idx)
			} else {
				folds[f].TrainIndices = append(folds[f].TrainIndices, idx)
			}
		}
	}
	return folds
}

func newRand(seed int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
