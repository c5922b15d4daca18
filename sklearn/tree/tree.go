// Package tree implements a CART decision tree classifier compatible with
// scikit-learn's DecisionTreeClassifier.
package tree

import (
	"fmt"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// node is one node of a fitted tree. Leaves have left == right == nil.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	value    []float64 // class counts of the training samples reaching the node
	nSamples int
	impurity float64
}

func (n *node) isLeaf() bool { return n.left == nil }

// DecisionTreeClassifier is a binary-split classification tree grown by
// greedy impurity minimisation.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion           string
	maxDepth            int // <= 0 means unlimited
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64

	// Fitted attributes
	root                *node
	classes_            []float64
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
	depth_              int
	nLeaves_            int
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a classifier with scikit-learn's
// defaults: gini, unlimited depth, min_samples_split=2, min_samples_leaf=1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       CriterionGini,
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion sets the split criterion ("gini", "entropy" or "log_loss").
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. Zero or negative means no limit.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMinImpurityDecrease only splits nodes whose weighted impurity
// decrease reaches v.
func WithMinImpurityDecrease(v float64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minImpurityDecrease = v
	}
}

func (dt *DecisionTreeClassifier) validateParams() error {
	if _, ok := impurityFor(dt.criterion); !ok {
		return errors.NewValidationError("criterion", "must be gini, entropy or log_loss", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.minImpurityDecrease < 0 {
		return errors.NewValidationError("min_impurity_decrease", "must be non-negative", dt.minImpurityDecrease)
	}
	return nil
}

// Fit grows the tree on X (n_samples × n_features) and labels y (n_samples × 1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if err := dt.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.CheckXY("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	dt.state.Reset()

	dt.classes_ = model.UniqueLabels(y)
	dt.nClasses_ = len(dt.classes_)
	dt.nFeatures_ = nFeatures
	classIndex := make(map[float64]int, dt.nClasses_)
	for i, c := range dt.classes_ {
		classIndex[c] = i
	}

	columns := make([][]float64, nFeatures)
	for j := range columns {
		columns[j] = make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			columns[j][i] = X.At(i, j)
		}
	}
	labels := make([]int, nSamples)
	for i := range labels {
		labels[i] = classIndex[y.At(i, 0)]
	}

	impurity, _ := impurityFor(dt.criterion)
	b := &builder{
		tree: dt,
		splitter: &splitter{
			columns:        columns,
			y:              labels,
			nClasses:       dt.nClasses_,
			minSamplesLeaf: dt.minSamplesLeaf,
			impurity:       impurity,
		},
		nSamples:    float64(nSamples),
		importances: make([]float64, nFeatures),
	}

	samples := make([]int, nSamples)
	for i := range samples {
		samples[i] = i
	}
	dt.depth_, dt.nLeaves_ = 0, 0
	dt.root = b.build(samples, 0)

	var total float64
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for j := range b.importances {
			b.importances[j] /= total
		}
	}
	dt.featureImportances_ = b.importances

	dt.state.SetFitted(nFeatures, nSamples)
	return nil
}

type builder struct {
	tree        *DecisionTreeClassifier
	splitter    *splitter
	nSamples    float64
	importances []float64
}

func (b *builder) build(samples []int, depth int) *node {
	dt := b.tree
	s := b.splitter
	n := len(samples)

	counts := make([]float64, s.nClasses)
	for _, idx := range samples {
		counts[s.y[idx]]++
	}
	nd := &node{
		value:    counts,
		nSamples: n,
		impurity: s.impurity(counts, float64(n)),
	}
	if depth > dt.depth_ {
		dt.depth_ = depth
	}

	isLeaf := (dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		nd.impurity <= 1e-12
	if !isLeaf {
		best := s.bestSplit(samples)
		if best.valid {
			// 重み付き不純度減少量 (sklearn の min_impurity_decrease と同じ定義)
			decrease := float64(n) / b.nSamples * (nd.impurity - best.childImpurity)
			if decrease+1e-12 >= dt.minImpurityDecrease {
				nd.feature = best.feature
				nd.threshold = best.threshold
				b.importances[best.feature] += float64(n) * (nd.impurity - best.childImpurity)

				col := s.columns[best.feature]
				left := make([]int, 0, best.pos)
				right := make([]int, 0, n-best.pos)
				for _, idx := range samples {
					if col[idx] <= best.threshold {
						left = append(left, idx)
					} else {
						right = append(right, idx)
					}
				}
				nd.left = b.build(left, depth+1)
				nd.right = b.build(right, depth+1)
				return nd
			}
		}
	}
	dt.nLeaves_++
	return nd
}

func (dt *DecisionTreeClassifier) checkPredict(method string, X mat.Matrix) (int, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", method); err != nil {
		return 0, err
	}
	if X == nil {
		return 0, errors.NewValueError("DecisionTreeClassifier."+method, "X must not be nil")
	}
	rows, cols := X.Dims()
	if err := dt.state.CheckFeatures("DecisionTreeClassifier."+method, cols); err != nil {
		return 0, err
	}
	return rows, nil
}

func (dt *DecisionTreeClassifier) leaf(X mat.Matrix, row int) *node {
	nd := dt.root
	for !nd.isLeaf() {
		if X.At(row, nd.feature) <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd
}

// PredictProba returns the class distribution of the leaf each sample
// falls into. Columns follow Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	rows, err := dt.checkPredict("PredictProba", X)
	if err != nil {
		return nil, err
	}
	proba := mat.NewDense(rows, dt.nClasses_, nil)
	for i := 0; i < rows; i++ {
		nd := dt.leaf(X, i)
		for k, c := range nd.value {
			proba.Set(i, k, c/float64(nd.nSamples))
		}
	}
	return proba, nil
}

// Predict returns the majority class of the leaf each sample falls into.
// Ties resolve to the smaller class label.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := dt.checkPredict("Predict", X)
	if err != nil {
		return nil, err
	}
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		nd := dt.leaf(X, i)
		best := 0
		for k, c := range nd.value {
			if c > nd.value[best] {
				best = k
			}
		}
		pred.Set(i, 0, dt.classes_[best])
	}
	return pred, nil
}

// Score returns the mean accuracy on X and y, or 0 if prediction fails.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	rows, _ := y.Dims()
	if rows == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

// Classes returns the sorted class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	out := make([]float64, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// GetFeatureImportances returns the normalised total impurity decrease
// contributed by each feature. All zeros when the tree has no split.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	out := make([]float64, len(dt.featureImportances_))
	copy(out, dt.featureImportances_)
	return out
}

// GetDepth returns the depth of the fitted tree; a single leaf has depth 0.
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth_ }

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int { return dt.nLeaves_ }

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool { return dt.state.IsFitted() }

// GetParams returns the hyperparameters in scikit-learn naming.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             dt.criterion,
		"max_depth":             dt.maxDepth,
		"min_samples_split":     dt.minSamplesSplit,
		"min_samples_leaf":      dt.minSamplesLeaf,
		"min_impurity_decrease": dt.minImpurityDecrease,
	}
}

// SetParams updates hyperparameters. Unknown keys and wrong value types
// are rejected without modifying the estimator.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	next := *dt
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			next.criterion, ok = value.(string)
		case "max_depth":
			next.maxDepth, ok = value.(int)
		case "min_samples_split":
			next.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			next.minSamplesLeaf, ok = value.(int)
		case "min_impurity_decrease":
			next.minImpurityDecrease, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter for DecisionTreeClassifier", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	if err := next.validateParams(); err != nil {
		return err
	}
	dt.criterion = next.criterion
	dt.maxDepth = next.maxDepth
	dt.minSamplesSplit = next.minSamplesSplit
	dt.minSamplesLeaf = next.minSamplesLeaf
	dt.minImpurityDecrease = next.minImpurityDecrease
	return nil
}

// Clone returns an unfitted classifier with the same hyperparameters.
func (dt *DecisionTreeClassifier) Clone() model.Estimator {
	return NewDecisionTreeClassifier(
		WithCriterion(dt.criterion),
		WithMaxDepth(dt.maxDepth),
		WithMinSamplesSplit(dt.minSamplesSplit),
		WithMinSamplesLeaf(dt.minSamplesLeaf),
		WithMinImpurityDecrease(dt.minImpurityDecrease),
	)
}

func (dt *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		dt.criterion, dt.maxDepth, dt.minSamplesSplit, dt.minSamplesLeaf)
}
