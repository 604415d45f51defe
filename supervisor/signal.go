package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	// ErrDeadlineExceeded is the cancellation cause when a test outlives its deadline.
	ErrDeadlineExceeded = errors.New("test deadline exceeded")
	// ErrInterrupted is the cancellation cause when the harness itself is stopped.
	ErrInterrupted = errors.New("harness interrupted")
)

// Signal is the one-shot cancellation flag of an execution. The watchdog
// raises it; the test observes it through Context.
type Signal struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	requested atomic.Bool
}

// newSignal derives the worker context from parent without inheriting its
// cancellation, so raise is the only way the worker context ends.
func newSignal(parent context.Context) *Signal {
	ctx, cancel := context.WithCancelCause(context.WithoutCancel(parent))
	return &Signal{ctx: ctx, cancel: cancel}
}

// Context is handed to the test's entry point.
func (s *Signal) Context() context.Context {
	return s.ctx
}

// Requested reports whether cancellation was raised.
func (s *Signal) Requested() bool {
	return s.requested.Load()
}

// Cause returns why cancellation was raised, or nil.
func (s *Signal) Cause() error {
	if !s.Requested() {
		return nil
	}
	return context.Cause(s.ctx)
}

// raise requests cancellation. It returns false if it was already requested.
func (s *Signal) raise(cause error) bool {
	if !s.requested.CompareAndSwap(false, true) {
		return false
	}
	s.cancel(cause)
	return true
}

// release frees the context resources once the worker has ended.
func (s *Signal) release() {
	if s.requested.Load() {
		return
	}
	s.cancel(context.Canceled)
}
