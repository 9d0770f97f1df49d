package dashboard

import (
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
)

// Chart sizes in SVG user units.
const (
	RadarSize   = 320
	TrendWidth  = 640
	TrendHeight = 220
)

// Result is everything the result panel renders.
type Result struct {
	Analysis   pipeline.Analysis
	Status     string
	Gauge      Gauge
	Context    HistoricalContext
	Trend      []TrendPoint
	TrendChart TrendChart
	Mitigation Mitigation
	Importance []Bar
	Radar      Radar
}

// NewResult assembles the result panel for an analysis.
func NewResult(analysis pipeline.Analysis, assets *model.Assets, r Rand) Result {
	result := analysis.Result
	trend := Trend(result.Probability, r)

	var bars []Bar
	if assets != nil {
		bars = ImportanceBars(assets.TopImportances(TopFeatures))
	}

	return Result{
		Analysis:   analysis,
		Status:     result.Status(),
		Gauge:      NewGauge(result),
		Context:    NewHistoricalContext(analysis.Observation, result),
		Trend:      trend,
		TrendChart: NewTrendChart(trend, result.Threshold, TrendWidth, TrendHeight),
		Mitigation: MitigationFor(result.IsDanger),
		Importance: bars,
		Radar:      NewRadar(RadarProfile(analysis.Observation), RadarLabels, RadarSize),
	}
}
