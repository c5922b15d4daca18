package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Averaging strategies for multi-class precision, recall and F1.
const (
	AverageWeighted = "weighted"
	AverageMacro    = "macro"
	AverageMicro    = "micro"
)

// LabelStats holds per-label counts and scores.
type LabelStats struct {
	Label     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// unionLabels returns the sorted labels present in either slice.
func unionLabels(yTrue, yPred []float64) []float64 {
	seen := make(map[float64]struct{})
	for _, v := range yTrue {
		seen[v] = struct{}{}
	}
	for _, v := range yPred {
		seen[v] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	return labels
}

// PerLabel computes precision, recall, F1 and support for every label
// present in yTrue or yPred. Ill-defined ratios are set to 0 and reported
// through errors.Warn.
func PerLabel(yTrue, yPred []float64) ([]LabelStats, error) {
	if err := checkSlices("PerLabel", yTrue, yPred); err != nil {
		return nil, err
	}
	labels := unionLabels(yTrue, yPred)
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	tp := make([]int, len(labels))
	predCount := make([]int, len(labels))
	trueCount := make([]int, len(labels))
	for i := range yTrue {
		t, p := index[yTrue[i]], index[yPred[i]]
		trueCount[t]++
		predCount[p]++
		if t == p {
			tp[t]++
		}
	}

	stats := make([]LabelStats, len(labels))
	var precisionUndefined, recallUndefined bool
	for i, l := range labels {
		s := LabelStats{Label: l, Support: trueCount[i]}
		if predCount[i] > 0 {
			s.Precision = float64(tp[i]) / float64(predCount[i])
		} else {
			precisionUndefined = true
		}
		if trueCount[i] > 0 {
			s.Recall = float64(tp[i]) / float64(trueCount[i])
		} else {
			recallUndefined = true
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		stats[i] = s
	}

	if precisionUndefined {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "labels with no predicted samples", 0))
	}
	if recallUndefined {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "labels with no true samples", 0))
	}
	return stats, nil
}

// PrecisionRecallFScore averages per-label scores with the given strategy:
// "weighted" weights each label by its support in yTrue, "macro" takes the
// unweighted mean and "micro" pools the counts over all labels.
func PrecisionRecallFScore(yTrue, yPred []float64, average string) (precision, recall, f1 float64, err error) {
	switch average {
	case AverageMicro:
		if err := checkSlices("PrecisionRecallFScore", yTrue, yPred); err != nil {
			return 0, 0, 0, err
		}
		// single-label multi-class: pooled precision == pooled recall == accuracy
		correct := 0
		for i := range yTrue {
			if yTrue[i] == yPred[i] {
				correct++
			}
		}
		acc := float64(correct) / float64(len(yTrue))
		return acc, acc, acc, nil
	case AverageWeighted, AverageMacro:
	default:
		return 0, 0, 0, errors.NewValidationError("average", "must be one of weighted, macro, micro", average)
	}

	stats, err := PerLabel(yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}

	var totalWeight float64
	for _, s := range stats {
		w := 1.0
		if average == AverageWeighted {
			w = float64(s.Support)
		}
		precision += w * s.Precision
		recall += w * s.Recall
		f1 += w * s.F1
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0, 0, 0, nil
	}
	return precision / totalWeight, recall / totalWeight, f1 / totalWeight, nil
}

// PrecisionScore returns the averaged precision.
func PrecisionScore(yTrue, yPred []float64, average string) (float64, error) {
	p, _, _, err := PrecisionRecallFScore(yTrue, yPred, average)
	return p, err
}

// RecallScore returns the averaged recall.
func RecallScore(yTrue, yPred []float64, average string) (float64, error) {
	_, r, _, err := PrecisionRecallFScore(yTrue, yPred, average)
	return r, err
}

// F1Score returns the averaged F1 score.
func F1Score(yTrue, yPred []float64, average string) (float64, error) {
	_, _, f, err := PrecisionRecallFScore(yTrue, yPred, average)
	return f, err
}

// ConfusionMatrix returns C where C[i][j] counts samples of label i
// predicted as label j, together with the sorted labels indexing it.
func ConfusionMatrix(yTrue, yPred []float64) (*mat.Dense, []float64, error) {
	if err := checkSlices("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, nil, err
	}
	labels := unionLabels(yTrue, yPred)
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// ClassificationReport renders per-label precision, recall, F1 and support
// followed by accuracy, macro and weighted averages, laid out like
// scikit-learn's classification_report.
func ClassificationReport(yTrue, yPred []float64, digits int) (string, error) {
	if digits <= 0 {
		digits = 2
	}
	stats, err := PerLabel(yTrue, yPred)
	if err != nil {
		return "", err
	}

	names := make([]string, len(stats))
	width := len("weighted avg")
	for i, s := range stats {
		names[i] = formatLabel(s.Label)
		if len(names[i]) > width {
			width = len(names[i])
		}
	}

	var b strings.Builder
	head := fmt.Sprintf("%*s %9s %9s %9s %9s\n", width, "", "precision", "recall", "f1-score", "support")
	b.WriteString(head)
	b.WriteString("\n")

	row := func(name string, p, r, f float64, support int) {
		fmt.Fprintf(&b, "%*s %9.*f %9.*f %9.*f %9d\n", width, name, digits, p, digits, r, digits, f, support)
	}
	for i, s := range stats {
		row(names[i], s.Precision, s.Recall, s.F1, s.Support)
	}
	b.WriteString("\n")

	n := len(yTrue)
	acc, _, _, _ := PrecisionRecallFScore(yTrue, yPred, AverageMicro)
	fmt.Fprintf(&b, "%*s %9s %9s %9.*f %9d\n", width, "accuracy", "", "", digits, acc, n)

	mp, mr, mf, err := PrecisionRecallFScore(yTrue, yPred, AverageMacro)
	if err != nil {
		return "", err
	}
	row("macro avg", mp, mr, mf, n)

	wp, wr, wf, err := PrecisionRecallFScore(yTrue, yPred, AverageWeighted)
	if err != nil {
		return "", err
	}
	row("weighted avg", wp, wr, wf, n)

	return b.String(), nil
}

func formatLabel(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
