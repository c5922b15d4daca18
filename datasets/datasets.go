// Package datasets loads tabular classification data and generates
// synthetic datasets for demos and tests.
package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with a single-column label matrix.
type Dataset struct {
	X *mat.Dense
	Y *mat.Dense

	FeatureNames []string
	TargetName   string

	// ClassNames maps encoded labels back to the original strings when the
	// target column was not numeric. ClassNames[i] is the name of label i.
	ClassNames []string
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (nSamples, nFeatures int) {
	return d.X.Dims()
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path, target string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return LoadCSV(f, target)
}

// LoadCSV reads a CSV with a header row. The column named target holds
// the labels; an empty target selects the last column. Every other column
// must be numeric. A non-numeric target is encoded as 0..k-1 following the
// sorted label strings.
func LoadCSV(r io.Reader, target string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("datasets.LoadCSV", "need a header and at least one row", errors.ErrEmptyData)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, errors.NewValueError("datasets.LoadCSV",
			fmt.Sprintf("need at least one feature and one target column, got %d columns", len(header)))
	}
	targetCol := len(header) - 1
	if target != "" {
		targetCol = -1
		for j, name := range header {
			if strings.TrimSpace(name) == target {
				targetCol = j
				break
			}
		}
		if targetCol < 0 {
			return nil, errors.NewValidationError("target", "column not found in header", target)
		}
	}

	rows := records[1:]
	nSamples, nFeatures := len(rows), len(header)-1
	X := mat.NewDense(nSamples, nFeatures, nil)
	labels := make([]string, nSamples)

	ds := &Dataset{TargetName: strings.TrimSpace(header[targetCol])}
	for j, name := range header {
		if j != targetCol {
			ds.FeatureNames = append(ds.FeatureNames, strings.TrimSpace(name))
		}
	}

	for i, row := range rows {
		col := 0
		for j, cell := range row {
			if j == targetCol {
				labels[i] = strings.TrimSpace(cell)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column %q", i+2, header[j])
			}
			X.Set(i, col, v)
			col++
		}
	}

	ds.X = X
	ds.Y, ds.ClassNames = encodeLabels(labels)
	return ds, nil
}

// encodeLabels parses labels as numbers, falling back to sorted string
// encoding when any label is not numeric.
func encodeLabels(labels []string) (*mat.Dense, []string) {
	y := mat.NewDense(len(labels), 1, nil)
	numeric := true
	for i, s := range labels {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			numeric = false
			break
		}
		y.Set(i, 0, v)
	}
	if numeric {
		return y, nil
	}

	seen := make(map[string]struct{})
	for _, s := range labels {
		seen[s] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for s := range seen {
		names = append(names, s)
	}
	sort.Strings(names)
	index := make(map[string]int, len(names))
	for i, s := range names {
		index[s] = i
	}
	for i, s := range labels {
		y.Set(i, 0, float64(index[s]))
	}
	return y, names
}

// MakeClassification generates nClasses gaussian blobs in nFeatures
// dimensions. Sample i belongs to class i % nClasses so every class is
// equally represented. The same seed always yields the same data.
func MakeClassification(nSamples, nFeatures, nClasses int, seed int) (*Dataset, error) {
	switch {
	case nClasses < 2:
		return nil, errors.NewValidationError("n_classes", "must be at least 2", nClasses)
	case nFeatures < 1:
		return nil, errors.NewValidationError("n_features", "must be at least 1", nFeatures)
	case nSamples < nClasses:
		return nil, errors.NewValidationError("n_samples", "must be at least n_classes", nSamples)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	// クラス中心は [-4, 4] の一様乱数
	centers := make([][]float64, nClasses)
	for c := range centers {
		centers[c] = make([]float64, nFeatures)
		for j := range centers[c] {
			centers[c][j] = rng.Float64()*8 - 4
		}
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		c := i % nClasses
		for j := 0; j < nFeatures; j++ {
			X.Set(i, j, centers[c][j]+rng.NormFloat64())
		}
		y.Set(i, 0, float64(c))
	}

	names := make([]string, nFeatures)
	for j := range names {
		names[j] = fmt.Sprintf("feature_%d", j)
	}
	return &Dataset{X: X, Y: y, FeatureNames: names, TargetName: "target"}, nil
}
