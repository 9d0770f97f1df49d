package dashboard

import "github.com/couchcryptid/rainfall-ews/internal/domain"

// Long-term Citeko means the inputs are compared against.
const (
	HistoricalMeanRR   = 8.5
	HistoricalMeanRH   = 82.0
	HistoricalMeanTAVG = 24.5
)

// HistoricalContext compares today's inputs with the station means.
type HistoricalContext struct {
	RR        float64
	DeltaRR   float64
	RHAvg     float64
	DeltaRH   float64
	Anomaly   string
	RiskLabel string
}

// NewHistoricalContext builds the comparison for an observation and its result.
func NewHistoricalContext(obs domain.Observation, result domain.PredictionResult) HistoricalContext {
	hc := HistoricalContext{
		RR:        obs.RR,
		DeltaRR:   obs.RR - HistoricalMeanRR,
		RHAvg:     obs.RHAvg,
		DeltaRH:   obs.RHAvg - HistoricalMeanRH,
		Anomaly:   "Normal",
		RiskLabel: "Low Risk",
	}
	if result.IsDanger {
		hc.Anomaly = "Terdeteksi"
		hc.RiskLabel = "High Risk"
	}
	return hc
}
