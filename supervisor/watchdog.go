package supervisor

import (
	"context"

	"github.com/ethereum-optimism/infra/op-harness/metrics"
	"github.com/ethereum/go-ethereum/log"
)

// watch polls the worker once per tick until it ends or its deadline passes.
//
// The elapsed time is a whole-tick counter compared against the real-valued
// deadline, so escalation happens at the first whole second not below it and
// a zero deadline escalates before the first sleep.
func (s *Supervisor) watch(ctx context.Context, exec *Execution, logger log.Logger) Outcome {
	deadline := exec.Deadline()
	elapsed := 0
	for exec.alive() {
		if ctx.Err() != nil {
			logger.Error("The harness was interrupted, asking the test to stop. It will be force stopped if it does not end in time",
				"elapsed", elapsed, "grace", s.grace)
			return s.escalate(exec, ErrInterrupted, logger)
		}
		if float64(elapsed) < deadline {
			elapsed++
			select {
			case <-s.clk.After(s.tick):
			case <-ctx.Done():
			}
			continue
		}
		logger.Error("The test timed out, asking it to stop. It will be force stopped if it does not end in time",
			"timeout", deadline, "grace", s.grace)
		return s.escalate(exec, ErrDeadlineExceeded, logger)
	}

	exec.transition(StateCompleted, s.clk.Now())
	s.reportEnd(exec, logger)
	logger.Info("The test has ended within its deadline", "elapsed", elapsed, "timeout", deadline)
	return OutcomeSuccess
}

// escalate raises cancellation and waits out the grace window. The window is
// fixed once started; nothing shortens or extends it.
func (s *Supervisor) escalate(exec *Execution, cause error, logger log.Logger) Outcome {
	signal := exec.Signal()
	if signal.raise(cause) {
		reason := "deadline"
		if cause == ErrInterrupted {
			reason = "interrupt"
		}
		metrics.RecordCancellation(exec.Name, reason)
	}
	exec.transition(StateCancelRequested, s.clk.Now())

	select {
	case <-exec.Done():
		exec.transition(StateDone, s.clk.Now())
		s.reportEnd(exec, logger)
		logger.Info("The test stopped after being asked to", "cause", cause)
		return OutcomeSuccess
	case <-s.clk.After(s.grace):
		exec.transition(StateForceTerminated, s.clk.Now())
		logger.Error("The test did not stop within the grace window after cancellation, forcing termination",
			"grace", s.grace)
		return OutcomeForcedTermination
	}
}
