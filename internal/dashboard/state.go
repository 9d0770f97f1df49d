package dashboard

import "fmt"

// State is the page state of the dashboard.
type State int

const (
	StateIdle State = iota
	StateComputing
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event drives a state transition.
type Event int

const (
	// EventAnalyzeRequested is the operator pressing the analyze button.
	EventAnalyzeRequested Event = iota
	EventSucceeded
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventAnalyzeRequested:
		return "analyze requested"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Next returns the state reached from s on e. Analyze can be requested from
// any settled state; only a computation can succeed or fail.
func Next(s State, e Event) (State, error) {
	switch {
	case e == EventAnalyzeRequested && s != StateComputing:
		return StateComputing, nil
	case e == EventSucceeded && s == StateComputing:
		return StateResult, nil
	case e == EventFailed && s == StateComputing:
		return StateError, nil
	default:
		return s, fmt.Errorf("invalid transition: %s in state %s", e, s)
	}
}

// Machine tracks the state of one dashboard interaction.
type Machine struct {
	state State
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Fire applies e. The state is unchanged when the transition is invalid.
func (m *Machine) Fire(e Event) error {
	next, err := Next(m.state, e)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}
