package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/config"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// SinkName identifies the Kafka sink in logs and metrics.
const SinkName = "kafka"

// Writer publishes every completed prediction to a Kafka topic.
// It implements notify.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// predictionEvent is the JSON payload of a prediction message.
type predictionEvent struct {
	domain.Alert
	Status string `json:"status"`
}

// NewWriter creates a Kafka producer for the configured alert topic. Alerts are
// written one at a time, so each write flushes immediately instead of waiting
// for a batch to fill.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertTopic,
		Balancer:               &kafkago.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return SinkName }

// Notify serializes and publishes one prediction event keyed by alert ID.
func (w *Writer) Notify(ctx context.Context, alert domain.Alert) error {
	msg, err := serializeToMessage(alert)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction %s: %w", alert.ID, err)
	}
	w.logger.Debug("prediction published", "alert_id", alert.ID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Alert into a Kafka message.
func serializeToMessage(alert domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(predictionEvent{Alert: alert, Status: alert.Status()})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(alert.Status())},
			{Key: "processed_at", Value: []byte(alert.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
