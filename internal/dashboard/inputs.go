package dashboard

import (
	"fmt"
	"math/rand/v2"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Inputs are the three measured values the operator enters.
type Inputs struct {
	RR    float64 `json:"rr" validate:"gte=0,lte=500"`
	RHAvg float64 `json:"rh_avg" validate:"gte=0,lte=100"`
	TAvg  float64 `json:"tavg" validate:"gte=10,lte=40"`
}

// DefaultInputs pre-fill the form on first load.
var DefaultInputs = Inputs{RR: 0, RHAvg: 80, TAvg: 24}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the values against the form bounds.
func (in Inputs) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidObservation, err)
	}
	return nil
}

// Observation derives the full observation, including the sunshine and wind
// estimates.
func (in Inputs) Observation() domain.Observation {
	return domain.NewObservation(in.RR, in.RHAvg, in.TAvg)
}

// Rand is the source of uniform [0, 1) values used for scenarios and the trend.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand draws from the concurrency-safe global generator.
var DefaultRand Rand = globalRand{}

func uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
