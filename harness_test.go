package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/supervisor"
	"github.com/ethereum-optimism/optimism/op-service/testlog"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleTest struct {
	name    string
	timeout float64
	env     registry.Env
	launch  func(ctx context.Context, env registry.Env) error
}

func (s *sampleTest) Name() string                     { return s.name }
func (s *sampleTest) Timeout() float64                 { return s.timeout }
func (s *sampleTest) Launch(ctx context.Context) error { return s.launch(ctx, s.env) }

func sampleRegistry(t *testing.T) *registry.Registry {
	reg := registry.New()
	add := func(name string, timeout float64, launch func(context.Context, registry.Env) error) {
		reg.MustRegister(name, func(env registry.Env) (registry.Test, error) {
			return &sampleTest{name: name, timeout: timeout, env: env, launch: launch}, nil
		})
	}
	add("Passing", 5, func(_ context.Context, env registry.Env) error {
		env.Log.Info("passing test body")
		return nil
	})
	add("Polite", 0, func(ctx context.Context, _ registry.Env) error {
		<-ctx.Done()
		return nil
	})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	add("Stubborn", 0, func(context.Context, registry.Env) error {
		<-release
		return nil
	})
	return reg
}

type testHarness struct {
	*harness
	out      *bytes.Buffer
	logPath  string
	shutdown chan error
}

func newTestHarness(t *testing.T, testName string) *testHarness {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "harness.html")
	configPath := filepath.Join(dir, "TestFramework.config")
	cfgFile := fmt.Sprintf("LogLevel: Debug\nDumpLogsToFile: true\nLogPath: %s\nTestFrameworkOutputRootPath: %s\n", logPath, dir)
	require.NoError(t, os.WriteFile(configPath, []byte(cfgFile), 0644))

	logger := testlog.Logger(t, log.LevelDebug)
	cfg := &Config{
		TestName:   testName,
		ConfigPath: configPath,
		Console:    logger.Handler(),
		Log:        logger,
	}

	shutdown := make(chan error, 1)
	h, err := New(cfg, sampleRegistry(t), "test", func(err error) { shutdown <- err })
	require.NoError(t, err)

	out := new(bytes.Buffer)
	h.out = out
	h.supervisorCfg = supervisor.Config{
		Tick:  10 * time.Millisecond,
		Grace: 200 * time.Millisecond,
	}
	return &testHarness{harness: h, out: out, logPath: logPath, shutdown: shutdown}
}

func (th *testHarness) logFile(t *testing.T) string {
	data, err := os.ReadFile(th.logPath)
	require.NoError(t, err)
	return string(data)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil, "test", nil)
	require.Error(t, err)
}

func TestStartSuccess(t *testing.T) {
	for _, name := range []string{"Passing", "Polite"} {
		t.Run(name, func(t *testing.T) {
			th := newTestHarness(t, name)

			require.NoError(t, th.Start(context.Background()))
			select {
			case err := <-th.shutdown:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("shutdown callback not called")
			}
			assert.Equal(t, supervisor.OutcomeSuccess, th.Result().Outcome)
			assert.False(t, th.Stopped())

			require.NoError(t, th.Stop(context.Background()))
			assert.True(t, th.Stopped())

			content := th.logFile(t)
			assert.Contains(t, content, "Starting a new worker for the test")
			assert.Contains(t, content, "Closing the log")
			assert.Contains(t, th.out.String(), name)
		})
	}
}

func TestStartPassingTestLogsThroughSink(t *testing.T) {
	th := newTestHarness(t, "Passing")
	require.NoError(t, th.Start(context.Background()))
	require.NoError(t, th.Stop(context.Background()))
	assert.Contains(t, th.logFile(t), "passing test body")
}

func TestStartUnknownTest(t *testing.T) {
	th := newTestHarness(t, "Missing")

	err := th.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsSetupError(err))
	assert.False(t, IsForcedTerminationError(err))
	require.ErrorIs(t, err, registry.ErrNotFound)
	assert.Equal(t, supervisor.OutcomeSetupFailure, th.Result().Outcome)

	content := th.logFile(t)
	assert.Contains(t, content, "Could not resolve the test")
	assert.Contains(t, content, "Closing the log", "the log file is closed without Stop")
}

func TestStartForcedTermination(t *testing.T) {
	th := newTestHarness(t, "Stubborn")

	err := th.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsForcedTerminationError(err))
	assert.False(t, IsSetupError(err))
	assert.Equal(t, supervisor.OutcomeForcedTermination, th.Result().Outcome)
	assert.Contains(t, th.logFile(t), "forcing termination")
}

func TestStartBadLogPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	configPath := filepath.Join(dir, "harness.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf("DumpLogsToFile: true\nLogPath: %s\n", filepath.Join(blocker, "log.html"))), 0644))

	logger := testlog.Logger(t, log.LevelDebug)
	h, err := New(&Config{TestName: "Passing", ConfigPath: configPath, Log: logger}, sampleRegistry(t), "test", nil)
	require.NoError(t, err)

	err = h.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsSetupError(err))
}

func TestListMode(t *testing.T) {
	th := newTestHarness(t, "")
	th.config.List = true

	require.NoError(t, th.Start(context.Background()))
	out := th.out.String()
	for _, name := range []string{"Passing", "Polite", "Stubborn"} {
		assert.Contains(t, out, name)
	}
	_, err := os.Stat(th.logPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "listing does not open the log file")
}

func TestErrorTypes(t *testing.T) {
	setup := NewSetupError(registry.ErrNotFound)
	assert.True(t, IsSetupError(fmt.Errorf("wrapped: %w", setup)))
	assert.ErrorIs(t, setup, registry.ErrNotFound)
	assert.Contains(t, setup.Error(), "setup error")
	assert.False(t, IsSetupError(nil))

	forced := NewForcedTerminationError("Stubborn")
	assert.True(t, IsForcedTerminationError(errors.Join(errors.New("failed to start"), forced)))
	assert.Contains(t, forced.Error(), "Stubborn")
	assert.False(t, IsForcedTerminationError(errors.New("other")))
}
