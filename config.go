package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-harness/flags"
	"github.com/ethereum-optimism/infra/op-harness/service"
	"github.com/ethereum/go-ethereum/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// Config holds the application configuration
type Config struct {
	TestName   string        // Registered test to launch
	ConfigPath string        // Harness config file
	List       bool          // Only list the registered tests
	Service    service.Config
	Console    slog.Handler // Console handler the log sink writes through
	Log        log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		TestName:   ctx.String(flags.Test.Name),
		ConfigPath: ctx.String(flags.ConfigFile.Name),
		List:       ctx.Bool(flags.List.Name),
		Service: service.Config{
			HealthzEnabled: ctx.Bool(flags.HealthzEnabled.Name),
			HealthzHost:    ctx.String(flags.HealthzAddr.Name),
			HealthzPort:    ctx.Int(flags.HealthzPort.Name),
			MetricsEnabled: metricsCfg.Enabled,
			MetricsHost:    metricsCfg.ListenAddr,
			MetricsPort:    metricsCfg.ListenPort,
		},
		Console: logger.Handler(),
		Log:     logger,
	}, nil
}
