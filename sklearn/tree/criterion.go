package tree

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scieval/core/parallel"
)

// Supported split criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
	CriterionLogLoss = "log_loss" // same as entropy
)

// featureThreshold is the minimal gap between two feature values for a
// split to be placed between them.
const featureThreshold = 1e-7

// parallelFeatureThreshold is the number of features above which the best
// split search runs one goroutine per feature range.
const parallelFeatureThreshold = 8

type impurityFunc func(counts []float64, total float64) float64

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	sumSq := 0.0
	for _, c := range counts {
		p := c / total
		sumSq += p * p
	}
	return 1 - sumSq
}

// entropy is measured in bits.
func entropy(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c > 0 {
			p := c / total
			h -= p * math.Log2(p)
		}
	}
	return h
}

func impurityFor(criterion string) (impurityFunc, bool) {
	switch criterion {
	case CriterionGini:
		return gini, true
	case CriterionEntropy, CriterionLogLoss:
		return entropy, true
	}
	return nil, false
}

// split is a candidate binary partition of a node.
type split struct {
	feature   int
	threshold float64
	pos       int // number of samples going left
	// weighted child impurity: (nL*impL + nR*impR) / n
	childImpurity float64
	leftImpurity  float64
	rightImpurity float64
	valid         bool
}

// splitter finds the best split of a node. X is stored column-major so
// that sorting a feature touches contiguous memory.
type splitter struct {
	columns        [][]float64
	y              []int // class index per sample
	nClasses       int
	minSamplesLeaf int
	impurity       impurityFunc
}

// bestSplit searches every feature and returns the split with the lowest
// weighted child impurity. Ties go to the lowest feature index, then to
// the lowest threshold, so the result does not depend on scheduling.
func (s *splitter) bestSplit(samples []int) split {
	nFeatures := len(s.columns)
	perFeature := make([]split, nFeatures)
	parallel.ParallelizeWithThreshold(nFeatures, parallelFeatureThreshold, func(start, end int) {
		for f := start; f < end; f++ {
			perFeature[f] = s.bestSplitForFeature(samples, f)
		}
	})

	var best split
	for _, cand := range perFeature {
		if !cand.valid {
			continue
		}
		if !best.valid || cand.childImpurity < best.childImpurity {
			best = cand
		}
	}
	return best
}

func (s *splitter) bestSplitForFeature(samples []int, feature int) split {
	n := len(samples)
	col := s.columns[feature]

	order := make([]int, n)
	copy(order, samples)
	sort.SliceStable(order, func(a, b int) bool {
		return col[order[a]] < col[order[b]]
	})

	left := make([]float64, s.nClasses)
	right := make([]float64, s.nClasses)
	for _, idx := range order {
		right[s.y[idx]]++
	}

	best := split{feature: feature}
	for i := 1; i < n; i++ {
		moved := s.y[order[i-1]]
		left[moved]++
		right[moved]--

		if i < s.minSamplesLeaf || n-i < s.minSamplesLeaf {
			continue
		}
		lo, hi := col[order[i-1]], col[order[i]]
		if hi <= lo+featureThreshold {
			continue
		}

		nL, nR := float64(i), float64(n-i)
		impL := s.impurity(left, nL)
		impR := s.impurity(right, nR)
		child := (nL*impL + nR*impR) / float64(n)
		if !best.valid || child < best.childImpurity {
			threshold := lo/2 + hi/2
			if threshold == hi || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
				threshold = lo
			}
			best = split{
				feature:       feature,
				threshold:     threshold,
				pos:           i,
				childImpurity: child,
				leftImpurity:  impL,
				rightImpurity: impR,
				valid:         true,
			}
		}
	}
	return best
}
