// Package notify fans completed predictions out to alert sinks. Each sink sits
// behind its own circuit breaker so a failing broker or chat API stops being
// called after repeated failures, and one sink's failure never blocks another.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// ErrSkipped is returned by a sink that chose not to deliver an alert, e.g. a
// danger-only sink receiving a safe result. It does not count as a failure.
var ErrSkipped = errors.New("alert skipped")

// Sink delivers alerts to one destination.
type Sink interface {
	Name() string
	Notify(ctx context.Context, alert domain.Alert) error
}

// Dispatcher delivers each alert to every sink concurrently.
type Dispatcher struct {
	sinks   []guardedSink
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

type guardedSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewDispatcher creates a Dispatcher. timeout bounds each sink call; zero
// means only the caller's context applies.
func NewDispatcher(sinks []Sink, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	d := &Dispatcher{
		sinks:   make([]guardedSink, 0, len(sinks)),
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
	for _, s := range sinks {
		d.sinks = append(d.sinks, guardedSink{sink: s, breaker: newBreaker(s.Name(), logger)})
	}
	return d
}

func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSkipped)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("alert sink breaker state changed", "sink", name, "from", from.String(), "to", to.String())
		},
	})
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.sink.Name()
	}
	return names
}

// Dispatch sends alert to every sink and waits for all of them. Failures are
// collected and joined; they never cancel the remaining deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, alert domain.Alert) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	for _, s := range d.sinks {
		g.Go(func() error {
			if err := d.deliver(ctx, s, alert); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", s.sink.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, s guardedSink, alert domain.Alert) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.sink.Notify(ctx, alert)
	})

	switch {
	case err == nil:
		d.observe(s.sink.Name(), "sent")
		d.logger.Debug("alert delivered", "sink", s.sink.Name(), "alert_id", alert.ID)
		return nil
	case errors.Is(err, ErrSkipped):
		d.observe(s.sink.Name(), "skipped")
		return nil
	default:
		d.observe(s.sink.Name(), "error")
		return err
	}
}

func (d *Dispatcher) observe(sink, outcome string) {
	if d.metrics != nil {
		d.metrics.Alerts.WithLabelValues(sink, outcome).Inc()
	}
}
