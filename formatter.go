package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/supervisor"
)

// ConsoleResultFormatter renders launch results and the registry as tables.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResult displays the outcome of a launch request.
func (f *ConsoleResultFormatter) FormatResult(result supervisor.Result) error {
	f.logger.Debug("Printing result...")
	t := table.NewWriter()
	t.SetOutputMirror(f.out)

	exec := result.Execution
	var duration time.Duration
	if exec != nil {
		duration = exec.Duration()
	}
	t.SetTitle(fmt.Sprintf("Test Harness Result (%s)", formatDuration(duration)))

	t.AppendHeader(table.Row{
		"Test", "Execution", "Deadline", "Duration", "State", "Cancellation", "Outcome", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Deadline", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	if exec == nil {
		t.AppendRow(table.Row{"-", "-", "-", "-", "-", "-", getOutcomeString(result.Outcome), errorString(result.Err)})
	} else {
		t.AppendRow(table.Row{
			exec.Name,
			exec.ID.String(),
			formatDeadline(exec),
			formatDuration(duration),
			exec.State().String(),
			cancellationString(exec),
			getOutcomeString(result.Outcome),
			errorString(resultError(result)),
		})
	}

	switch result.Outcome {
	case supervisor.OutcomeSuccess:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case supervisor.OutcomeForcedTermination:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	}

	t.Render()
	return nil
}

// FormatRegistry lists the registered tests.
func (f *ConsoleResultFormatter) FormatRegistry(reg *registry.Registry) error {
	const title = "Registered Tests"
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "Test"})
	// the title wraps to the table width, so short names must not narrow it
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMin: len(title)},
	})

	names := reg.Names()
	for i, name := range names {
		t.AppendRow(table.Row{i + 1, name})
	}
	t.AppendFooter(table.Row{"TOTAL", len(names)})
	t.Render()
	return nil
}

// resultError prefers the setup error, then whatever the entry point returned.
func resultError(result supervisor.Result) error {
	if result.Err != nil {
		return result.Err
	}
	if result.Execution != nil && result.Outcome != supervisor.OutcomeForcedTermination {
		return result.Execution.Err()
	}
	return nil
}

func getOutcomeString(outcome supervisor.Outcome) string {
	switch outcome {
	case supervisor.OutcomeSuccess:
		return "✓ success"
	case supervisor.OutcomeForcedTermination:
		return "✗ forced termination"
	default:
		return "✗ setup failure"
	}
}

func cancellationString(exec *supervisor.Execution) string {
	signal := exec.Signal()
	if signal == nil || !signal.Requested() {
		return "-"
	}
	return signal.Cause().Error()
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatDeadline(exec *supervisor.Execution) string {
	if exec.Test() == nil {
		return "-"
	}
	return fmt.Sprintf("%gs", exec.Deadline())
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
