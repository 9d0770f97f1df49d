package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Model artifacts, resolved relative to ModelDir.
	ModelDir        string `envconfig:"MODEL_DIR" default:"deployment_files" validate:"required"`
	ModelConfigFile string `envconfig:"MODEL_CONFIG_FILE" default:"model_config.json" validate:"required"`
	ModelFile       string `envconfig:"MODEL_FILE" default:"best_model_xgboost.json" validate:"required"`

	StationName         string `envconfig:"STATION_NAME" default:"Stasiun Klimatologi Citeko, Bogor" validate:"required"`
	PredictionCacheSize int    `envconfig:"PREDICTION_CACHE_SIZE" default:"256" validate:"gte=0"`

	// Alert sinks.
	AlertTimeout    time.Duration `envconfig:"ALERT_TIMEOUT" default:"5s" validate:"gt=0"`
	AlertQueueSize  int           `envconfig:"ALERT_QUEUE_SIZE" default:"64" validate:"gt=0"`
	KafkaEnabled    bool          `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaAlertTopic string        `envconfig:"KAFKA_ALERT_TOPIC" default:"rainfall-risk-predictions"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
	TelegramEnabled  bool   `ignored:"true"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is honored but never overrides the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.TelegramEnabled = cfg.TelegramBotToken != ""
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		cfg.TelegramEnabled = v == "true"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.TelegramEnabled {
		if cfg.TelegramBotToken == "" {
			return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_BOT_TOKEN is not set")
		}
		if cfg.TelegramChatID == 0 {
			return nil, errors.New("TELEGRAM_CHAT_ID is required when telegram alerts are enabled")
		}
	}

	return &cfg, nil
}

// ModelConfigPath returns the full path of the model config artifact.
func (c *Config) ModelConfigPath() string {
	return filepath.Join(c.ModelDir, c.ModelConfigFile)
}

// ModelPath returns the full path of the model artifact.
func (c *Config) ModelPath() string {
	return filepath.Join(c.ModelDir, c.ModelFile)
}
