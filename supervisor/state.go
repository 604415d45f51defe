package supervisor

import "fmt"

// State is the lifecycle position of an execution.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateRunning
	StateCompleted       // worker ended on its own
	StateCancelRequested // deadline reached or interrupted, grace window running
	StateDone            // worker ended within the grace window
	StateForceTerminated // worker ignored cancellation past the grace window
	StateSetupFailed     // resolution failed, no worker was started
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelRequested:
		return "cancel_requested"
	case StateDone:
		return "done"
	case StateForceTerminated:
		return "force_terminated"
	case StateSetupFailed:
		return "setup_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateDone, StateForceTerminated, StateSetupFailed:
		return true
	default:
		return false
	}
}

var transitions = map[State][]State{
	StateIdle:            {StateResolving},
	StateResolving:       {StateRunning, StateSetupFailed},
	StateRunning:         {StateCompleted, StateCancelRequested},
	StateCancelRequested: {StateDone, StateForceTerminated},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outcome is the terminal result of a launch request.
type Outcome int

const (
	OutcomeSetupFailure Outcome = iota
	OutcomeSuccess
	OutcomeForcedTermination
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSetupFailure:
		return "setup_failure"
	case OutcomeSuccess:
		return "success"
	case OutcomeForcedTermination:
		return "forced_termination"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
