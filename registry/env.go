package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum-optimism/infra/op-harness/config"
	"github.com/ethereum/go-ethereum/log"
)

// ErrOutputRootMissing is returned by Env.OutputRoot when the config has no output root.
var ErrOutputRootMissing = errors.New("output root path is not configured")

// Env is what a factory receives to build a test.
type Env struct {
	// Log is the test-scoped logger; its records carry the current case and step.
	Log    log.Logger
	Config *config.Source
}

// OutputRoot returns the directory tests write their artifacts to. Relative
// paths are resolved against the working directory.
func (e Env) OutputRoot() (string, error) {
	if e.Config == nil {
		return "", ErrOutputRootMissing
	}
	root, ok := e.Config.GetString(e.logger(), config.KeyOutputRootPath)
	if !ok || root == "" {
		return "", ErrOutputRootMissing
	}
	if filepath.IsAbs(root) {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve output root %s: %w", root, err)
	}
	return filepath.Join(wd, root), nil
}

func (e Env) logger() log.Logger {
	if e.Log == nil {
		return log.NewLogger(log.DiscardHandler())
	}
	return e.Log
}

// Stepper is implemented by tests that report the case and step they are in.
// The values prefix the test's log records as "<case:step>".
type Stepper interface {
	CurrentStep() (caseID string, step int, ok bool)
}
