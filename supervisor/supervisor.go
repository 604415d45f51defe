// Package supervisor runs one named test on its own goroutine and enforces
// its deadline: cooperative cancellation first, forced termination after a
// fixed grace window.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/metrics"
	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/optimism/op-service/clock"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTick is the interval between liveness checks of the worker.
	DefaultTick = time.Second
	// DefaultGrace is how long a canceled test may keep running before it is force terminated.
	DefaultGrace = 10 * time.Second
)

// ErrSupervisorUsed is returned when Launch is called more than once.
var ErrSupervisorUsed = errors.New("supervisor already launched a test")

// Resolver resolves a test name to its entry point. *registry.Registry implements it.
type Resolver interface {
	Resolve(name string, env registry.Env) (*registry.EntryPoint, error)
}

// Config configures a Supervisor. Zero values select the production defaults.
type Config struct {
	Resolver Resolver
	Log      log.Logger
	// Env is handed to the test factory.
	Env    registry.Env
	Clock  clock.Clock
	Tick   time.Duration
	Grace  time.Duration
	Tracer trace.Tracer
}

// Result is the terminal report of a launch request.
type Result struct {
	Outcome   Outcome
	Execution *Execution
	// Err is the setup error when Outcome is OutcomeSetupFailure.
	Err error
}

// Supervisor owns a single test execution.
type Supervisor struct {
	resolver Resolver
	log      log.Logger
	env      registry.Env
	clk      clock.Clock
	tick     time.Duration
	grace    time.Duration
	tracer   trace.Tracer

	launched atomic.Bool
	current  atomic.Pointer[Execution]
}

// New creates a Supervisor.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		resolver: cfg.Resolver,
		log:      cfg.Log,
		env:      cfg.Env,
		clk:      cfg.Clock,
		tick:     cfg.Tick,
		grace:    cfg.Grace,
		tracer:   cfg.Tracer,
	}
	if s.resolver == nil {
		s.resolver = registry.Default
	}
	if s.log == nil {
		s.log = log.New()
	}
	if s.clk == nil {
		s.clk = clock.SystemClock
	}
	if s.tick <= 0 {
		s.tick = DefaultTick
	}
	if s.grace <= 0 {
		s.grace = DefaultGrace
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("test supervisor")
	}
	return s
}

// Current returns the execution of this supervisor, nil before Launch.
func (s *Supervisor) Current() *Execution {
	return s.current.Load()
}

// LogPrefix returns "<case:step>" when the running test reports its step.
func (s *Supervisor) LogPrefix() string {
	exec := s.current.Load()
	if exec == nil {
		return ""
	}
	stepper, ok := exec.Test().(registry.Stepper)
	if !ok {
		return ""
	}
	caseID, step, ok := stepper.CurrentStep()
	if !ok {
		return ""
	}
	return fmt.Sprintf("<%s:%d>", caseID, step)
}

// Launch resolves name, runs it and blocks until the terminal outcome is
// decided. On OutcomeForcedTermination the worker goroutine is abandoned
// and the caller is expected to end the process.
//
// Canceling ctx escalates like an expired deadline: the test is asked to
// stop and gets the same grace window.
func (s *Supervisor) Launch(ctx context.Context, name string) Result {
	if !s.launched.CompareAndSwap(false, true) {
		s.log.Error("The supervisor has already launched a test", "test", name)
		return Result{Outcome: OutcomeSetupFailure, Err: ErrSupervisorUsed}
	}

	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("test %s", name))
	defer span.End()

	exec := newExecution(name)
	s.current.Store(exec)
	logger := s.log.New("test", name, "execution", exec.ID)
	span.SetAttributes(attribute.String("execution.id", exec.ID.String()))

	exec.transition(StateResolving, s.clk.Now())
	ep, err := s.resolver.Resolve(name, s.env)
	if err != nil {
		exec.transition(StateSetupFailed, s.clk.Now())
		logger.Error("Could not resolve the test, aborting", "err", err)
		metrics.RecordErrorDetails("setup", err)
		metrics.RecordExecution(name, OutcomeSetupFailure.String(), 0)
		span.SetStatus(codes.Error, err.Error())
		return Result{Outcome: OutcomeSetupFailure, Execution: exec, Err: err}
	}

	s.spawn(ctx, exec, ep, logger)
	outcome := s.watch(ctx, exec, logger)

	metrics.RecordExecution(name, outcome.String(), exec.Duration())
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	if outcome == OutcomeForcedTermination {
		span.SetStatus(codes.Error, "test ignored cancellation")
	}
	return Result{Outcome: outcome, Execution: exec}
}

// spawn starts the entry point on its own goroutine.
func (s *Supervisor) spawn(ctx context.Context, exec *Execution, ep *registry.EntryPoint, logger log.Logger) {
	signal := newSignal(ctx)
	exec.begin(ep.Test, signal, s.clk.Now())
	logger.Info("Starting a new worker for the test", "deadline", exec.Deadline())
	metrics.RecordExecutionStarted(exec.Name)

	go func() {
		defer close(exec.done)
		var pc panics.Catcher
		pc.Try(func() {
			exec.err = ep.Launch(signal.Context())
		})
		if r := pc.Recovered(); r != nil {
			exec.panicErr = r.AsError()
		}
	}()
}

// reportEnd logs how the entry point returned. Only called once Done is closed.
func (s *Supervisor) reportEnd(exec *Execution, logger log.Logger) {
	exec.Signal().release()
	if exec.panicErr != nil {
		logger.Error("The test panicked", "err", exec.panicErr)
		metrics.RecordErrorDetails("panic", exec.panicErr)
		return
	}
	if exec.err != nil {
		logger.Warn("The test returned an error", "err", exec.err)
	}
}
