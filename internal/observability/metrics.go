package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the prediction service.
type Metrics struct {
	Predictions           *prometheus.CounterVec // labels: outcome={danger,safe}
	PredictionErrors      prometheus.Counter
	PredictionDuration    prometheus.Histogram
	PredictionProbability prometheus.Histogram

	// Model metrics.
	ModelLoaded     prometheus.Gauge
	ModelThreshold  prometheus.Gauge
	ClassifierCache *prometheus.CounterVec // labels: result={hit,miss}

	// Alert and report metrics.
	Alerts           *prometheus.CounterVec // labels: sink, outcome={sent,skipped,error,dropped}
	ReportsGenerated prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.PredictionProbability,
		m.ModelLoaded,
		m.ModelThreshold,
		m.ClassifierCache,
		m.Alerts,
		m.ReportsGenerated,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ews",
			Name:      "predictions_total",
			Help:      "Completed predictions by outcome.",
		}, []string{"outcome"}),
		PredictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ews",
			Name:      "prediction_errors_total",
			Help:      "Requests that failed during validation, feature construction or inference.",
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ews",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of feature construction plus inference.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		PredictionProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ews",
			Name:      "prediction_probability",
			Help:      "Distribution of predicted danger probabilities.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ews",
			Name:      "model_loaded",
			Help:      "1 once the model artifacts are loaded.",
		}),
		ModelThreshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ews",
			Name:      "model_threshold",
			Help:      "Configured decision threshold.",
		}),
		ClassifierCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ews",
			Name:      "classifier_cache_total",
			Help:      "Classifier cache lookups by result.",
		}, []string{"result"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ews",
			Name:      "alerts_total",
			Help:      "Alert deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ews",
			Name:      "reports_generated_total",
			Help:      "Text reports offered for download.",
		}),
	}
}
