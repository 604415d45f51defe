package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ethereum-optimism/infra/op-harness/config"
	"github.com/ethereum-optimism/infra/op-harness/logging"
	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/service"
	"github.com/ethereum-optimism/infra/op-harness/supervisor"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// harness implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &harness{}

// harness launches a single registered test under a supervisor.
type harness struct {
	config   *Config
	version  string
	registry *registry.Registry
	service  *service.Service
	out      io.Writer

	// supervisor settings, overridden in tests
	supervisorCfg supervisor.Config

	sink   *logging.Sink
	result supervisor.Result

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the harness lifecycle. A nil registry selects registry.Default.
func New(config *Config, reg *registry.Registry, version string, shutdownCallback func(error)) (*harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if reg == nil {
		reg = registry.Default
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating harness with config",
		"test", config.TestName,
		"config", config.ConfigPath,
		"list", config.List)

	return &harness{
		config:           config,
		version:          version,
		registry:         reg,
		service:          service.New(config.Service, config.Log),
		out:              os.Stdout,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start loads the harness config, launches the test and blocks until its
// outcome is decided.
// Start implements the cliapp.Lifecycle interface.
func (h *harness) Start(ctx context.Context) error {
	h.running.Store(true)
	formatter := NewConsoleResultFormatter(h.config.Log, h.out)

	if h.config.List {
		if err := formatter.FormatRegistry(h.registry); err != nil {
			return err
		}
		go h.shutdownCallback(nil)
		return nil
	}

	h.service.Start()

	src := config.Load(h.config.Log, h.config.ConfigPath)
	sink, err := newSink(h.config, src)
	if err != nil {
		h.service.Shutdown()
		return NewSetupError(fmt.Errorf("failed to open the log sink: %w", err))
	}
	h.sink = sink

	cfg := h.supervisorCfg
	cfg.Resolver = h.registry
	cfg.Log = sink.Logger()
	cfg.Env = registry.Env{Log: sink.TestLogger(), Config: src}
	sup := supervisor.New(cfg)
	sink.Bind(sup)

	h.result = sup.Launch(ctx, h.config.TestName)
	if err := formatter.FormatResult(h.result); err != nil {
		h.config.Log.Warn("Could not print the result", "err", err)
	}

	switch h.result.Outcome {
	case supervisor.OutcomeSuccess:
		go h.shutdownCallback(nil)
		return nil
	case supervisor.OutcomeForcedTermination:
		h.release()
		return NewForcedTerminationError(h.config.TestName)
	default:
		h.release()
		return NewSetupError(h.result.Err)
	}
}

// Stop flushes the log file and stops the healthz and metrics servers.
// Stop implements the cliapp.Lifecycle interface.
func (h *harness) Stop(ctx context.Context) error {
	if !h.running.Swap(false) {
		return nil
	}
	h.release()
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (h *harness) Stopped() bool {
	return !h.running.Load()
}

// Result returns the outcome of the last launch.
func (h *harness) Result() supervisor.Result {
	return h.result
}

// release is called on every exit path; cliapp skips Stop when Start fails.
func (h *harness) release() {
	h.service.Shutdown()
	if h.sink == nil {
		return
	}
	if err := h.sink.Close(); err != nil {
		h.config.Log.Warn("Could not close the log file", "err", err)
	}
}

// newSink builds the log sink from the harness config file. Missing keys are
// reported and fall back to console-only logging at the default level.
func newSink(cfg *Config, src *config.Source) (*logging.Sink, error) {
	level := logging.DefaultLevel
	if v, ok := src.GetString(cfg.Log, config.KeyLogLevel); ok {
		parsed, err := logging.ParseLevel(v)
		if err != nil {
			cfg.Log.Warn("Invalid log level in config, using default", "value", v, "default", level)
		} else {
			level = parsed
		}
	}

	sinkCfg := logging.Config{
		Level:   level,
		Console: cfg.Console,
	}
	if src.GetBool(cfg.Log, config.KeyDumpLogsToFile) {
		path, ok := src.GetString(cfg.Log, config.KeyLogPath)
		if ok {
			sinkCfg.DumpToFile = true
			sinkCfg.Path = path
		} else {
			cfg.Log.Warn("Logs will not be written to a file")
		}
	}
	return logging.NewSink(sinkCfg)
}
