package dashboard

import "fmt"

// TrendPoint is one hour of the illustrative 24-hour risk curve, in percent.
type TrendPoint struct {
	Hour string  `json:"hour"`
	Risk float64 `json:"risk"`
}

// hourFactor scales risk up in the afternoon convective window and down
// overnight.
func hourFactor(hour int) float64 {
	switch {
	case hour >= 13 && hour <= 17:
		return 1.3
	case hour >= 0 && hour <= 6:
		return 0.6
	default:
		return 1.0
	}
}

// Trend spreads probability over 24 hours with random jitter of +-10 %.
// The result is capped at 99 %. It is decoration, not a forecast.
func Trend(probability float64, r Rand) []TrendPoint {
	points := make([]TrendPoint, 24)
	for h := range points {
		v := min(probability*hourFactor(h)*uniform(r, 0.9, 1.1), 0.99)
		points[h] = TrendPoint{Hour: fmt.Sprintf("%02d:00", h), Risk: v * 100}
	}
	return points
}
