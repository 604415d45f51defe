package flags

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-harness/config"
	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_HARNESS"

var (
	Test = &cli.StringFlag{
		Name:    "test",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST"),
		Usage:   "Name of the registered test to run",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   config.DefaultPath,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to the harness config file ('key: value' lines, or .yaml/.toml)",
	}
	List = &cli.BoolFlag{
		Name:    "list",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LIST"),
		Usage:   "List the registered tests and exit",
	}
	HealthzEnabled = &cli.BoolFlag{
		Name:    "healthz.enabled",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ENABLED"),
		Usage:   "Serve /healthz while the test runs",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz.addr",
		Value:   "0.0.0.0",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Healthz listening address",
	}
	HealthzPort = &cli.IntFlag{
		Name:    "healthz.port",
		Value:   8080,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_PORT"),
		Usage:   "Healthz listening port",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Test,
	ConfigFile,
	List,
	HealthzEnabled,
	HealthzAddr,
	HealthzPort,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired verifies that a test is named unless only listing.
func CheckRequired(ctx *cli.Context) error {
	if !ctx.Bool(List.Name) && ctx.String(Test.Name) == "" {
		return errors.New("flag test is required")
	}
	return opflags.CheckRequiredXor(ctx)
}
