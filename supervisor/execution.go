package supervisor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/google/uuid"
)

// Execution is the single run tracked by a Supervisor.
type Execution struct {
	ID   uuid.UUID
	Name string

	done chan struct{}

	mu        sync.RWMutex
	test      registry.Test
	deadline  float64
	signal    *Signal
	state     State
	startedAt time.Time
	endedAt   time.Time

	// written by the worker before done is closed
	err      error
	panicErr error
}

func newExecution(name string) *Execution {
	return &Execution{
		ID:    uuid.New(),
		Name:  name,
		done:  make(chan struct{}),
		state: StateIdle,
	}
}

// normalizeDeadline maps negative and NaN timeouts to zero.
func normalizeDeadline(d float64) float64 {
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// State returns the current lifecycle state.
func (e *Execution) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// StartedAt is when the worker was spawned; zero if it never was.
func (e *Execution) StartedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.startedAt
}

// Duration is the time from spawn until the terminal outcome was decided.
func (e *Execution) Duration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.startedAt.IsZero() || e.endedAt.IsZero() {
		return 0
	}
	return e.endedAt.Sub(e.startedAt)
}

// Done is closed when the worker goroutine ends. It never closes when no
// worker was spawned.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Signal returns the cancellation signal, nil before the worker is spawned.
func (e *Execution) Signal() *Signal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signal
}

// Deadline is the test's timeout in seconds, set once the test is resolved.
func (e *Execution) Deadline() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.deadline
}

// Test returns the resolved test, nil before resolution succeeded.
func (e *Execution) Test() registry.Test {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.test
}

// Err returns the error returned by the entry point, or the recovered panic.
// It is only meaningful after Done is closed.
func (e *Execution) Err() error {
	select {
	case <-e.done:
	default:
		return nil
	}
	if e.panicErr != nil {
		return e.panicErr
	}
	return e.err
}

// begin records the resolved test and moves to StateRunning.
func (e *Execution) begin(test registry.Test, signal *Signal, now time.Time) {
	e.mu.Lock()
	e.test = test
	e.deadline = normalizeDeadline(test.Timeout())
	e.signal = signal
	e.startedAt = now
	e.mu.Unlock()
	e.transition(StateRunning, now)
}

func (e *Execution) alive() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// transition moves the execution forward. Backward or skipping moves are
// programming errors.
func (e *Execution) transition(to State, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !canTransition(e.state, to) {
		panic(fmt.Sprintf("invalid execution transition %s -> %s", e.state, to))
	}
	e.state = to
	if to.Terminal() {
		e.endedAt = now
	}
}
