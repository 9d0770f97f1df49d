package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
)

// AlertDispatcher delivers a completed prediction to the configured sinks.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert domain.Alert) error
}

// Analysis is everything the dashboard needs to present one prediction.
type Analysis struct {
	AlertID     string                  `json:"alert_id"`
	Observation domain.Observation      `json:"observation"`
	Features    domain.FeatureVector    `json:"features"`
	Result      domain.PredictionResult `json:"result"`
}

// Analyzer runs observations through feature construction and the classifier.
type Analyzer struct {
	assets     *model.Assets
	classifier domain.Classifier
	station    string
	dispatcher AlertDispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClassifier replaces the classifier from the assets, e.g. with a cached one.
func WithClassifier(clf domain.Classifier) Option {
	return func(a *Analyzer) { a.classifier = clf }
}

// WithDispatcher sends every completed analysis to d.
func WithDispatcher(d AlertDispatcher) Option {
	return func(a *Analyzer) { a.dispatcher = d }
}

// New creates an Analyzer over loaded model assets.
func New(assets *model.Assets, station string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Analyzer {
	a := &Analyzer{
		assets:  assets,
		station: station,
		logger:  logger,
		metrics: metrics,
	}
	if assets != nil {
		a.classifier = assets.Classifier
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assets returns the model context the analyzer scores with.
func (a *Analyzer) Assets() *model.Assets { return a.assets }

// Station returns the station name stamped on alerts and reports.
func (a *Analyzer) Station() string { return a.station }

// CheckReadiness returns nil once model assets are loaded.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if a.assets == nil || a.classifier == nil {
		return errors.New("model assets are not loaded")
	}
	return nil
}

// Evaluate builds the feature vector for obs and scores it without recording
// metrics or dispatching alerts.
func (a *Analyzer) Evaluate(ctx context.Context, obs domain.Observation) (Analysis, error) {
	if err := a.CheckReadiness(ctx); err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if err := obs.Validate(); err != nil {
		return Analysis{}, err
	}

	features := domain.BuildFeatures(obs, a.assets.Schema)
	result, err := PredictDanger(a.classifier, features, a.assets.Threshold)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Observation: obs, Features: features, Result: result}, nil
}

// Analyze evaluates obs, records metrics and dispatches an alert.
// Alert delivery failures are logged and never fail the analysis. The service
// dispatches through a notify.Queue so sink I/O stays off the request path.
func (a *Analyzer) Analyze(ctx context.Context, obs domain.Observation) (Analysis, error) {
	start := time.Now()
	analysis, err := a.Evaluate(ctx, obs)
	if err != nil {
		a.metrics.PredictionErrors.Inc()
		a.logger.Warn("prediction failed", "error", err, "rr", obs.RR, "rh_avg", obs.RHAvg, "tavg", obs.TAvg)
		return Analysis{}, err
	}

	result := analysis.Result
	a.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	a.metrics.PredictionProbability.Observe(result.Probability)
	a.metrics.Predictions.WithLabelValues(outcome(result)).Inc()

	alert := domain.NewAlert(a.station, obs, result)
	analysis.AlertID = alert.ID
	a.logger.Info("prediction completed",
		"alert_id", alert.ID,
		"rr", obs.RR,
		"rh_avg", obs.RHAvg,
		"tavg", obs.TAvg,
		"probability", result.Probability,
		"threshold", result.Threshold,
		"status", result.Status(),
	)

	if a.dispatcher != nil {
		if err := a.dispatcher.Dispatch(ctx, alert); err != nil {
			a.logger.Warn("alert dispatch failed", "error", err, "alert_id", alert.ID)
		}
	}

	return analysis, nil
}

func outcome(r domain.PredictionResult) string {
	if r.IsDanger {
		return "danger"
	}
	return "safe"
}
