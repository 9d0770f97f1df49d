package dashboard

import "fmt"

// Scenario names a quick-fill button.
type Scenario string

const (
	ScenarioClear Scenario = "clear"
	ScenarioRainy Scenario = "rainy"
)

// Range is a closed interval of plausible values.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ScenarioRanges are the sampling ranges of one scenario.
type ScenarioRanges struct {
	Label string
	RR    Range
	RHAvg Range
	TAvg  Range
}

var scenarios = map[Scenario]ScenarioRanges{
	ScenarioClear: {
		Label: "Hari Cerah",
		RR:    Range{0, 5},
		RHAvg: Range{60, 80},
		TAvg:  Range{25, 29},
	},
	ScenarioRainy: {
		Label: "Hari Hujan",
		RR:    Range{40, 100},
		RHAvg: Range{92, 99},
		TAvg:  Range{20, 23},
	},
}

// Ranges returns the sampling ranges of s.
func (s Scenario) Ranges() (ScenarioRanges, bool) {
	r, ok := scenarios[s]
	return r, ok
}

// Generate draws uniform inputs for the named scenario.
func Generate(s Scenario, r Rand) (Inputs, error) {
	ranges, ok := s.Ranges()
	if !ok {
		return Inputs{}, fmt.Errorf("unknown scenario %q", s)
	}
	return Inputs{
		RR:    uniform(r, ranges.RR.Min, ranges.RR.Max),
		RHAvg: uniform(r, ranges.RHAvg.Min, ranges.RHAvg.Max),
		TAvg:  uniform(r, ranges.TAvg.Min, ranges.TAvg.Max),
	}, nil
}
