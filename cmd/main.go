package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	harness "github.com/ethereum-optimism/infra/op-harness"
	_ "github.com/ethereum-optimism/infra/op-harness/examples"
	"github.com/ethereum-optimism/infra/op-harness/exitcodes"
	"github.com/ethereum-optimism/infra/op-harness/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-harness"
	app.Usage = "Test Harness with Timeout Supervision"
	app.Description = "op-harness runs a registered test and stops it when it outlives its deadline"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if harness.IsForcedTerminationError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.ForcedTermination))
			} else {
				// setup errors and anything else that stopped the launch
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.SetupFailure))
			}
		}
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := harness.NewConfig(ctx, log)
	if err != nil {
		return nil, harness.NewSetupError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	h, err := harness.New(cfg, nil, Version, closeApp)
	if err != nil {
		return nil, harness.NewSetupError(fmt.Errorf("failed to create harness: %w", err))
	}

	return h, nil
}
