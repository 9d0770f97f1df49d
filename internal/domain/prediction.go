package domain

// DefaultThreshold is the decision threshold used when the model config omits one.
const DefaultThreshold = 0.35

// Operator-facing status labels.
const (
	StatusDanger = "BAHAYA / SIAGA"
	StatusSafe   = "AMAN / NORMAL"
)

// PredictionResult is the outcome of one classification.
type PredictionResult struct {
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	IsDanger    bool    `json:"is_danger"`
}

// NewPredictionResult applies the decision rule probability >= threshold.
func NewPredictionResult(probability, threshold float64) PredictionResult {
	return PredictionResult{
		Probability: probability,
		Threshold:   threshold,
		IsDanger:    probability >= threshold,
	}
}

// Status returns StatusDanger or StatusSafe.
func (r PredictionResult) Status() string {
	if r.IsDanger {
		return StatusDanger
	}
	return StatusSafe
}
