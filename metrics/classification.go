package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEps は対数損失の計算でlog(0)を避けるためのクリッピング幅
const logLossEps = 1e-15

// checkPair はラベルと予測のベクトルを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkSlices(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

func isBinaryLabel(v float64) bool {
	return v == 0 || v == 1
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// AUC computes the area under the ROC curve for binary labels in {0, 1}.
// Tied scores receive their average rank. When only one class is present
// the AUC is undefined; 0.5 is returned and an UndefinedMetricWarning raised.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	labels := make([]float64, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = yTrue.AtVec(i)
		if !isBinaryLabel(labels[i]) {
			return 0, errors.NewValueError("AUC", "labels must be 0 or 1")
		}
		scores[i] = yPred.AtVec(i)
	}
	auc, ok := rankAUC(labels, scores)
	if !ok {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}
	return auc, nil
}

// AUCMatrix is AUC on the first column of two matrices.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || cPred == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rPred, 0)
	}
	return AUC(firstColumn(yTrue), firstColumn(yPred))
}

func firstColumn(m mat.Matrix) *mat.VecDense {
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

// rankAUC は Mann-Whitney U 統計量から AUC を求める (labels は 0/1)。
// 片方のクラスしか無いときは ok=false
func rankAUC(labels, scores []float64) (auc float64, ok bool) {
	n := len(labels)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		// 同順位は平均順位 (1始まり)
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg int
	var rankSum float64
	for i, l := range labels {
		if l == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, false
	}
	u := rankSum - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), true
}

// BinaryLogLoss は二値分類の対数損失を計算する。予測値は陽性クラスの確率。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var loss float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if !isBinaryLabel(y) {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be 0 or 1")
		}
		p := clip(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if y == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// LogLoss is the multi-class cross-entropy. Column j of proba is the
// probability of classes[j]; rows are renormalised after clipping.
func LogLoss(yTrue []float64, proba mat.Matrix, classes []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	rows, cols := proba.Dims()
	if rows != len(yTrue) {
		return 0, errors.NewDimensionError("LogLoss", len(yTrue), rows, 0)
	}
	if cols != len(classes) {
		return 0, errors.NewDimensionError("LogLoss", len(classes), cols, 1)
	}
	index := make(map[float64]int, len(classes))
	for j, c := range classes {
		index[c] = j
	}

	var loss float64
	for i, y := range yTrue {
		j, ok := index[y]
		if !ok {
			return 0, errors.NewValueError("LogLoss", "y_true contains a label not seen by the estimator")
		}
		var rowSum float64
		for k := 0; k < cols; k++ {
			rowSum += clip(proba.At(i, k), logLossEps, 1-logLossEps)
		}
		p := clip(proba.At(i, j), logLossEps, 1-logLossEps) / rowSum
		loss -= math.Log(p)
	}
	return loss / float64(len(yTrue)), nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ROCAUCScore computes the binary ROC AUC of scores against yTrue, treating
// posLabel as the positive class. yTrue must hold exactly two distinct
// labels; with only one the AUC is undefined and a ValueError is returned.
func ROCAUCScore(yTrue, scores []float64, posLabel float64) (float64, error) {
	if err := checkSlices("ROCAUCScore", yTrue, scores); err != nil {
		return 0, err
	}
	distinct := make(map[float64]struct{}, 2)
	labels := make([]float64, len(yTrue))
	for i, y := range yTrue {
		distinct[y] = struct{}{}
		if y == posLabel {
			labels[i] = 1
		}
	}
	if len(distinct) > 2 {
		return 0, errors.Mark(errors.NewValueError("ROCAUCScore", "multiclass format is not supported"), errors.ErrMulticlass)
	}
	auc, ok := rankAUC(labels, scores)
	if !ok {
		return 0, errors.NewValueError("ROCAUCScore", "only one class present in y_true; ROC AUC is not defined")
	}
	return auc, nil
}
