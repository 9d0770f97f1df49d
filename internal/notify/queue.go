package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
)

// ErrQueueFull is returned when an alert cannot be queued without blocking.
var ErrQueueFull = errors.New("alert queue full")

// ErrQueueClosed is returned for alerts submitted after Close.
var ErrQueueClosed = errors.New("alert queue closed")

type deliverer interface {
	Dispatch(ctx context.Context, alert domain.Alert) error
}

// Queue hands alerts to a Dispatcher on a single background goroutine, so
// callers never wait on sink I/O. Alerts are delivered in submission order.
type Queue struct {
	next    deliverer
	alerts  chan domain.Alert
	done    chan struct{}
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts a queue holding at most size pending alerts.
func NewQueue(next deliverer, size int, logger *slog.Logger, metrics *observability.Metrics) *Queue {
	q := &Queue{
		next:    next,
		alerts:  make(chan domain.Alert, max(size, 1)),
		done:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
	go q.run()
	return q
}

// Dispatch queues alert for delivery and returns immediately.
func (q *Queue) Dispatch(_ context.Context, alert domain.Alert) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.alerts <- alert:
		return nil
	default:
		if q.metrics != nil {
			q.metrics.Alerts.WithLabelValues("queue", "dropped").Inc()
		}
		return ErrQueueFull
	}
}

// Close stops accepting alerts and waits for the pending ones to be delivered
// or for ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.alerts)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for alert := range q.alerts {
		if err := q.next.Dispatch(context.Background(), alert); err != nil {
			q.logger.Warn("alert dispatch failed", "error", err, "alert_id", alert.ID)
		}
	}
}
