package model

import (
	"fmt"
	"slices"
	"sort"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
)

// Assets is the read-only model context shared by all requests.
type Assets struct {
	Schema      domain.FeatureSchema
	Threshold   float64
	Classifier  domain.Classifier
	Booster     *Booster
	Importances []Importance
}

// Importance is the normalized gain importance of one feature.
type Importance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// Load reads the model configuration and artifact and checks they agree.
func Load(configPath, modelPath string) (*Assets, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	booster, err := LoadBooster(modelPath)
	if err != nil {
		return nil, err
	}
	return NewAssets(cfg, booster)
}

// NewAssets pairs a validated config with a booster.
func NewAssets(cfg Config, booster *Booster) (*Assets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if booster.NumFeature() != len(cfg.FeatureNames) {
		return nil, fmt.Errorf("%w: model expects %d features, config lists %d",
			ErrInvalidModel, booster.NumFeature(), len(cfg.FeatureNames))
	}
	if names := booster.FeatureNames(); len(names) > 0 && !slices.Equal(names, cfg.FeatureNames) {
		return nil, fmt.Errorf("%w: model feature names do not match config", ErrInvalidModel)
	}

	weights := booster.FeatureImportances()
	importances := make([]Importance, len(cfg.FeatureNames))
	for i, name := range cfg.FeatureNames {
		importances[i] = Importance{Feature: name, Weight: weights[i]}
	}

	return &Assets{
		Schema:      cfg.Schema(),
		Threshold:   cfg.Threshold,
		Classifier:  booster,
		Booster:     booster,
		Importances: importances,
	}, nil
}

// TopImportances returns the n heaviest features, heaviest first. Ties keep
// schema order.
func (a *Assets) TopImportances(n int) []Importance {
	sorted := slices.Clone(a.Importances)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
