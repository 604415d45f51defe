package harness

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/supervisor"
)

// TestConsoleResultFormatter_SetupFailure formats a result without an execution.
func TestConsoleResultFormatter_SetupFailure(t *testing.T) {
	var out bytes.Buffer
	formatter := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &out)

	err := formatter.FormatResult(supervisor.Result{
		Outcome: supervisor.OutcomeSetupFailure,
		Err:     supervisor.ErrSupervisorUsed,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "setup failure")
	assert.Contains(t, out.String(), supervisor.ErrSupervisorUsed.Error())
}

func TestConsoleResultFormatter_FormatRegistry(t *testing.T) {
	reg := registry.New()
	reg.MustRegister("Beta", func(registry.Env) (registry.Test, error) { return nil, nil })
	reg.MustRegister("Alpha", func(registry.Env) (registry.Test, error) { return nil, nil })

	var out bytes.Buffer
	formatter := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &out)
	require.NoError(t, formatter.FormatRegistry(reg))

	content := out.String()
	assert.Contains(t, content, "Registered Tests")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Alpha")), bytes.Index(out.Bytes(), []byte("Beta")))
}

func TestConsoleResultFormatter_FormatRegistryShortNames(t *testing.T) {
	reg := registry.New()
	reg.MustRegister("Q", func(registry.Env) (registry.Test, error) { return nil, nil })

	var out bytes.Buffer
	formatter := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &out)
	require.NoError(t, formatter.FormatRegistry(reg))

	content := out.String()
	assert.Contains(t, content, "Registered Tests")
	assert.NotContains(t, content, "Registered Te |")
}

func TestConsoleResultFormatter_FormatRegistryEmpty(t *testing.T) {
	var out bytes.Buffer
	formatter := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &out)
	require.NoError(t, formatter.FormatRegistry(registry.New()))
	assert.Contains(t, out.String(), "Registered Tests")
}

func TestGetOutcomeString(t *testing.T) {
	assert.Equal(t, "✓ success", getOutcomeString(supervisor.OutcomeSuccess))
	assert.Equal(t, "✗ forced termination", getOutcomeString(supervisor.OutcomeForcedTermination))
	assert.Equal(t, "✗ setup failure", getOutcomeString(supervisor.OutcomeSetupFailure))
}
