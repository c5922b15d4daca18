package evaluation

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// percent formats v like Python's "{: 0.2%}": a space for non-negative
// values, two decimals, percent sign.
func percent(v float64) string {
	return fmt.Sprintf("% .2f%%", v*100)
}

// fixed3 formats v like Python's "{: .3f}".
func fixed3(v float64) string {
	return fmt.Sprintf("% .3f", v)
}

// round3 rounds half to even at three decimals, as numpy does.
func round3(v float64) float64 {
	return math.RoundToEven(v*1000) / 1000
}

// metricLabel turns a scoring name into a human label:
// "recall_weighted" -> "Recall weighted".
func metricLabel(scoring string) string {
	s := strings.ToLower(strings.ReplaceAll(scoring, "_", " "))
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// curveLabel is the short metric name used in learning-curve legends.
func curveLabel(scoring string) string {
	switch {
	case strings.HasPrefix(scoring, "precision"):
		return "precision"
	case strings.HasPrefix(scoring, "recall"):
		return "recall"
	case strings.HasPrefix(scoring, "f1"):
		return "f1"
	case scoring == "roc_auc":
		return "roc auc"
	case scoring == "neg_log_loss":
		return "negative log loss"
	}
	return strings.ReplaceAll(scoring, "_", " ")
}

// slug makes a file-safe chart name: "Decision Tree" -> "decision_tree".
func slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "model"
	}
	return s
}
