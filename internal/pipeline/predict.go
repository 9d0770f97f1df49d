package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
)

// ErrPrediction marks a request whose features could not be scored.
var ErrPrediction = errors.New("prediction failed")

// PredictDanger scores a feature vector and applies the decision rule.
// The danger probability is the second class of PredictProba.
func PredictDanger(clf domain.Classifier, features domain.FeatureVector, threshold float64) (domain.PredictionResult, error) {
	row := features.Values()
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.PredictionResult{}, fmt.Errorf("%w: feature %s is not a finite number", ErrPrediction, features[i].Name)
		}
	}

	proba, err := clf.PredictProba(row)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(proba) < 2 {
		return domain.PredictionResult{}, fmt.Errorf("%w: classifier returned %d classes", ErrPrediction, len(proba))
	}

	p := proba[1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return domain.PredictionResult{}, fmt.Errorf("%w: probability %v outside [0, 1]", ErrPrediction, p)
	}
	return domain.NewPredictionResult(p, threshold), nil
}
