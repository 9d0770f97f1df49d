package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rainfall-ews/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-ews/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-ews/internal/adapter/telegram"
	"github.com/couchcryptid/rainfall-ews/internal/config"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/notify"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	assets, err := model.Load(cfg.ModelConfigPath(), cfg.ModelPath())
	if err != nil {
		logger.Error("failed to load model", "error", err, "config", cfg.ModelConfigPath(), "model", cfg.ModelPath())
		os.Exit(1)
	}
	metrics.ModelLoaded.Set(1)
	metrics.ModelThreshold.Set(assets.Threshold)
	logger.Info("model loaded",
		"features", len(assets.Schema),
		"threshold", assets.Threshold,
		"trees", assets.Booster.NumTrees(),
		"objective", assets.Booster.Objective(),
	)

	// Alert sinks (feature-flagged via KAFKA_ENABLED / TELEGRAM_BOT_TOKEN).
	var (
		sinks   []notify.Sink
		closers []io.Closer
	)
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		closers = append(closers, writer)
		logger.Info("kafka alert stream enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.TelegramEnabled {
		notifier, err := telegram.NewNotifier(cfg, logger)
		if err != nil {
			logger.Error("failed to initialize telegram", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, notifier)
	}

	opts := []pipeline.Option{
		pipeline.WithClassifier(model.NewCachedClassifier(assets.Classifier, cfg.PredictionCacheSize, metrics)),
	}
	var alerts *notify.Queue
	if len(sinks) > 0 {
		dispatcher := notify.NewDispatcher(sinks, cfg.AlertTimeout, logger, metrics)
		alerts = notify.NewQueue(dispatcher, cfg.AlertQueueSize, logger, metrics)
		opts = append(opts, pipeline.WithDispatcher(alerts))
	}
	analyzer := pipeline.New(assets, cfg.StationName, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if alerts != nil {
		if err := alerts.Close(shutdownCtx); err != nil {
			logger.Error("alert queue drain error", "error", err)
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("alert sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
