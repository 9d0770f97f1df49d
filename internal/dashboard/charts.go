package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
)

// TopFeatures is how many features the importance chart shows.
const TopFeatures = 8

// Gauge is the probability dial, in percent.
type Gauge struct {
	Value     float64
	Threshold float64
}

// NewGauge converts a result to percentages.
func NewGauge(result domain.PredictionResult) Gauge {
	return Gauge{Value: result.Probability * 100, Threshold: result.Threshold * 100}
}

// Bar is one row of the feature-importance chart.
type Bar struct {
	Feature string
	Weight  float64
	// Width is the bar length relative to the heaviest feature, in percent.
	Width float64
}

// ImportanceBars returns bars for the heaviest features, heaviest first.
func ImportanceBars(top []model.Importance) []Bar {
	var maxWeight float64
	for _, imp := range top {
		maxWeight = max(maxWeight, imp.Weight)
	}
	bars := make([]Bar, len(top))
	for i, imp := range top {
		bars[i] = Bar{Feature: imp.Feature, Weight: imp.Weight}
		if maxWeight > 0 {
			bars[i].Width = imp.Weight / maxWeight * 100
		}
	}
	return bars
}

// RadarLabels name the radar axes in drawing order.
var RadarLabels = []string{"Hujan", "Kelembaban", "Suhu Dingin", "Sinar Matahari", "Angin"}

// RadarProfile normalizes an observation onto the five radar axes. Colder
// temperatures plot further out.
func RadarProfile(obs domain.Observation) []float64 {
	values := []float64{
		min(obs.RR/100, 1),
		min(obs.RHAvg/100, 1),
		1 - min((obs.TAvg-15)/20, 1),
		min(obs.SS/12, 1),
		min(obs.FFAvg/10, 1),
	}
	for i, v := range values {
		values[i] = clamp01(v)
	}
	return values
}

// Point is a position in SVG user space.
type Point struct {
	X, Y float64
}

// Radar is the SVG geometry of the radar chart.
type Radar struct {
	Size    float64
	Center  Point
	Polygon string
	Grid    []string
	Axes    []RadarAxis
}

// RadarAxis is one spoke with its label.
type RadarAxis struct {
	Label string
	Value float64
	End   Point
	Text  Point
}

// NewRadar lays out values on a regular polygon inside a size x size square,
// first axis pointing up, clockwise.
func NewRadar(values []float64, labels []string, size float64) Radar {
	c := Point{size / 2, size / 2}
	radius := size * 0.36
	n := len(values)

	at := func(i int, r float64) Point {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		return Point{c.X + r*math.Cos(angle), c.Y + r*math.Sin(angle)}
	}
	ring := func(r float64) string {
		pts := make([]string, n)
		for i := range n {
			p := at(i, r)
			pts[i] = formatPoint(p)
		}
		return strings.Join(pts, " ")
	}

	radar := Radar{Size: size, Center: c}
	pts := make([]string, n)
	for i, v := range values {
		pts[i] = formatPoint(at(i, radius*v))
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		radar.Axes = append(radar.Axes, RadarAxis{
			Label: label,
			Value: v,
			End:   at(i, radius),
			Text:  at(i, radius+18),
		})
	}
	radar.Polygon = strings.Join(pts, " ")
	for _, f := range []float64{0.25, 0.5, 0.75, 1} {
		radar.Grid = append(radar.Grid, ring(radius*f))
	}
	return radar
}

// TrendChart is the SVG geometry of the trend area chart.
type TrendChart struct {
	Width, Height float64
	Line          string
	Area          string
	ThresholdY    float64
	Points        []TrendMarker
}

// TrendMarker is a plotted hour.
type TrendMarker struct {
	TrendPoint
	At Point
}

// NewTrendChart scales trend points (0..100 %) into a width x height box.
func NewTrendChart(points []TrendPoint, threshold, width, height float64) TrendChart {
	chart := TrendChart{Width: width, Height: height, ThresholdY: yFor(threshold*100, height)}
	if len(points) == 0 {
		return chart
	}

	step := width
	if len(points) > 1 {
		step = width / float64(len(points)-1)
	}
	line := make([]string, len(points))
	for i, p := range points {
		at := Point{float64(i) * step, yFor(p.Risk, height)}
		line[i] = formatPoint(at)
		chart.Points = append(chart.Points, TrendMarker{TrendPoint: p, At: at})
	}
	chart.Line = strings.Join(line, " ")
	last := chart.Points[len(chart.Points)-1].At
	chart.Area = fmt.Sprintf("%s %s %s", formatPoint(Point{0, height}), chart.Line, formatPoint(Point{last.X, height}))
	return chart
}

func yFor(percent, height float64) float64 {
	return height - clamp01(percent/100)*height
}

func formatPoint(p Point) string {
	return fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
