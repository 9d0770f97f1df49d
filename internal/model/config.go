package model

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when the model configuration is unusable.
var ErrInvalidConfig = errors.New("invalid model config")

// Config is the content of model_config.json.
type Config struct {
	FeatureNames []string `json:"feature_names" mapstructure:"feature_names"`
	Threshold    float64  `json:"threshold" mapstructure:"threshold"`
}

// LoadConfig reads and validates a model configuration file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("threshold", domain.DefaultThreshold)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read model config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the feature list and threshold.
func (c Config) Validate() error {
	if len(c.FeatureNames) == 0 {
		return fmt.Errorf("%w: feature_names is empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.FeatureNames))
	for _, name := range c.FeatureNames {
		if name == "" {
			return fmt.Errorf("%w: empty feature name", ErrInvalidConfig)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

// Schema returns the configured feature order.
func (c Config) Schema() domain.FeatureSchema {
	return domain.FeatureSchema(c.FeatureNames)
}
