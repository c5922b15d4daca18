// Package chart renders evaluation results with gonum/plot. Renderers
// return a *plot.Plot; a Sink decides where the plot ends up.
package chart

import (
	"image/color"
	"math"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series is one named sequence of values, e.g. one metric across folds.
type Series struct {
	Name   string
	Values []float64
}

// BarsConfig holds the labels of a grouped bar chart.
type BarsConfig struct {
	Title       string
	XLabel      string
	YLabel      string
	LegendTitle string
}

// groupWidth is the total width of the bars of one group.
const groupWidth = vg.Length(60)

// MetricBars draws a grouped bar chart: one group per entry of groups and
// one bar per series inside each group. Every series must have one value
// per group.
func MetricBars(cfg BarsConfig, groups []string, series []Series) (*plot.Plot, error) {
	if len(groups) == 0 || len(series) == 0 {
		return nil, errors.NewValueError("chart.MetricBars", "need at least one group and one series")
	}
	for _, s := range series {
		if len(s.Values) != len(groups) {
			return nil, errors.NewDimensionError("chart.MetricBars", len(groups), len(s.Values), 0)
		}
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel
	p.Y.Min = 0
	p.Legend.Top = true
	if cfg.LegendTitle != "" {
		p.Legend.Add(cfg.LegendTitle)
	}

	w := groupWidth / vg.Length(len(series))
	for i, s := range series {
		// NaN は失敗した fold の平均なので高さ 0 の棒にする
		values := make(plotter.Values, len(s.Values))
		for j, v := range s.Values {
			if isFinite(v) {
				values[j] = v
			}
		}
		bars, err := plotter.NewBarChart(values, w)
		if err != nil {
			return nil, errors.Wrapf(err, "bars for %s", s.Name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = w * (vg.Length(i) - vg.Length(len(series)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(groups...)
	return p, nil
}

// CurveData is a learning curve: mean and std of the training and
// validation scores per training-set size.
type CurveData struct {
	Sizes     []float64
	TrainMean []float64
	TrainStd  []float64
	TestMean  []float64
	TestStd   []float64
}

func (c CurveData) validate() error {
	n := len(c.Sizes)
	if n == 0 {
		return errors.NewValueError("chart.LearningCurve", "no training sizes")
	}
	for _, v := range [][]float64{c.TrainMean, c.TrainStd, c.TestMean, c.TestStd} {
		if len(v) != n {
			return errors.NewDimensionError("chart.LearningCurve", n, len(v), 0)
		}
	}
	return nil
}

// CurveConfig holds the labels of a learning-curve chart.
type CurveConfig struct {
	Title      string
	XLabel     string
	YLabel     string
	TrainLabel string
	TestLabel  string
}

// bandAlpha is the opacity of the ±std bands (0.15 of 255).
const bandAlpha = 38

var (
	trainColor = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	testColor  = color.NRGBA{R: 44, G: 160, B: 44, A: 255}
)

// LearningCurve draws the training curve as a solid line with circles and
// the validation curve as a dashed line with squares, each with a ±std
// band around the mean. Sizes whose mean or std is NaN are left out; a
// curve with no finite point is not drawn.
func LearningCurve(cfg CurveConfig, data CurveData) (*plot.Plot, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	train, err := curve(data.Sizes, data.TrainMean, data.TrainStd, trainColor, draw.CircleGlyph{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "training curve")
	}
	dashes := []vg.Length{vg.Points(6), vg.Points(3)}
	test, err := curve(data.Sizes, data.TestMean, data.TestStd, testColor, draw.SquareGlyph{}, dashes)
	if err != nil {
		return nil, errors.Wrap(err, "validation curve")
	}

	for _, c := range []curvePlotters{train, test} {
		if c.band != nil {
			p.Add(c.band)
		}
	}
	for _, c := range []curvePlotters{train, test} {
		if c.line != nil {
			p.Add(c.line, c.points)
		}
	}
	if train.line != nil {
		p.Legend.Add(cfg.TrainLabel, train.line, train.points)
	}
	if test.line != nil {
		p.Legend.Add(cfg.TestLabel, test.line, test.points)
	}
	return p, nil
}

type curvePlotters struct {
	band   *plotter.Polygon
	line   *plotter.Line
	points *plotter.Scatter
}

func curve(x, mean, std []float64, c color.NRGBA, shape draw.GlyphDrawer, dashes []vg.Length) (curvePlotters, error) {
	var out curvePlotters
	var keep []int
	for i := range x {
		if isFinite(mean[i]) && isFinite(std[i]) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return out, nil
	}

	n := len(keep)
	xys := make(plotter.XYs, n)
	// 上側を左から右、下側を右から左にたどって帯を閉じる
	ring := make(plotter.XYs, 2*n)
	for k, i := range keep {
		xys[k] = plotter.XY{X: x[i], Y: mean[i]}
		ring[k] = plotter.XY{X: x[i], Y: mean[i] + std[i]}
		ring[2*n-1-k] = plotter.XY{X: x[i], Y: mean[i] - std[i]}
	}

	var err error
	if out.band, err = plotter.NewPolygon(ring); err != nil {
		return out, err
	}
	fill := c
	fill.A = bandAlpha
	out.band.Color = fill
	out.band.LineStyle.Width = 0

	if out.line, err = plotter.NewLine(xys); err != nil {
		return out, err
	}
	out.line.LineStyle.Color = c
	out.line.LineStyle.Dashes = dashes

	if out.points, err = plotter.NewScatter(xys); err != nil {
		return out, err
	}
	out.points.GlyphStyle.Color = c
	out.points.GlyphStyle.Shape = shape
	out.points.GlyphStyle.Radius = vg.Points(3)
	return out, nil
}

// BoxConfig holds the labels of a box plot.
type BoxConfig struct {
	Title  string
	XLabel string
	YLabel string
}

// BoxPlot draws one box per named score sample, in the given order. NaN
// scores are ignored; a sample with no other score keeps its slot on the
// axis but gets no box.
func BoxPlot(cfg BoxConfig, names []string, scores [][]float64) (*plot.Plot, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("chart.BoxPlot", "need at least one sample")
	}
	if len(names) != len(scores) {
		return nil, errors.NewDimensionError("chart.BoxPlot", len(names), len(scores), 0)
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel

	for i, s := range scores {
		if len(s) == 0 {
			return nil, errors.NewValueError("chart.BoxPlot", "empty sample for "+names[i])
		}
		values := make(plotter.Values, 0, len(s))
		for _, v := range s {
			if isFinite(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), values)
		if err != nil {
			return nil, errors.Wrapf(err, "box for %s", names[i])
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
	}
	p.NominalX(names...)
	return p, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
