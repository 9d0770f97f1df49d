package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Variable names as they appear in the training data.
const (
	VarRR    = "RR"
	VarTAVG  = "TAVG"
	VarRHAvg = "RH_AVG"
	VarSS    = "SS"
	VarFFAvg = "FF_AVG"
)

// ErrInvalidObservation is returned when an observation contains values that
// cannot be turned into a feature vector.
var ErrInvalidObservation = errors.New("invalid observation")

// Observation holds today's values for the five model variables.
type Observation struct {
	RR    float64 `json:"rr"`
	RHAvg float64 `json:"rh_avg"`
	TAvg  float64 `json:"tavg"`
	SS    float64 `json:"ss"`
	FFAvg float64 `json:"ff_avg"`
}

// NewObservation builds an observation from the three measured values and
// fills in the sunshine and wind estimates derived from rainfall.
func NewObservation(rr, rhAvg, tAvg float64) Observation {
	return Observation{
		RR:    rr,
		RHAvg: rhAvg,
		TAvg:  tAvg,
		SS:    EstimateSunshine(rr),
		FFAvg: EstimateWind(rr),
	}
}

// EstimateSunshine returns the sunshine duration estimate for a rainfall amount.
// Both breakpoints are exclusive: RR of exactly 5 or 20 yields 2.0.
func EstimateSunshine(rr float64) float64 {
	switch {
	case rr < 5:
		return 6.0
	case rr > 20:
		return 0.0
	default:
		return 2.0
	}
}

// EstimateWind returns the average wind speed estimate for a rainfall amount.
func EstimateWind(rr float64) float64 {
	switch {
	case rr < 20:
		return 2.0
	case rr > 50:
		return 5.0
	default:
		return 3.0
	}
}

// Values returns the observation keyed by variable name.
func (o Observation) Values() map[string]float64 {
	return map[string]float64{
		VarRR:    o.RR,
		VarTAVG:  o.TAvg,
		VarRHAvg: o.RHAvg,
		VarSS:    o.SS,
		VarFFAvg: o.FFAvg,
	}
}

// Validate reports whether every value is a finite number.
func (o Observation) Validate() error {
	values := o.Values()
	for _, name := range lagVariables {
		v := values[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidObservation, name)
		}
	}
	return nil
}

// Alert is a completed prediction as delivered to alert sinks.
type Alert struct {
	ID          string           `json:"id"`
	Station     string           `json:"station"`
	Observation Observation      `json:"observation"`
	Result      PredictionResult `json:"result"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewAlert stamps a prediction with a fresh ID and the current time.
func NewAlert(station string, obs Observation, result PredictionResult) Alert {
	return Alert{
		ID:          uuid.NewString(),
		Station:     station,
		Observation: obs,
		Result:      result,
		CreatedAt:   clock.Now(),
	}
}

// Status returns the operator-facing status label of the alert.
func (a Alert) Status() string {
	return a.Result.Status()
}
