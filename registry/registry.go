// Package registry maps test names to factories that build runnable tests.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when no test is registered under a name.
	ErrNotFound = errors.New("test not found")
	// ErrConstructionFailed is returned when a factory cannot build its test.
	ErrConstructionFailed = errors.New("test construction failed")
	// ErrEntryPointMissing is returned when a built test has no Launch method.
	ErrEntryPointMissing = errors.New("test has no launch entry point")
	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("test already registered")
)

// Test is a constructed test instance.
type Test interface {
	Name() string
	// Timeout is the deadline of the test in seconds. Zero means no time may elapse.
	Timeout() float64
}

// Launcher is implemented by tests that can be run. Launch must return
// once ctx is canceled for the test to stop cleanly.
type Launcher interface {
	Launch(ctx context.Context) error
}

// Factory builds a test for the given environment.
type Factory func(env Env) (Test, error)

// EntryPoint is a resolved, runnable test.
type EntryPoint struct {
	Test   Test
	Launch func(ctx context.Context) error
}

// Registry holds the registered factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("test name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for test %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Names returns the registered test names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the test registered under name and returns its entry point.
// Each failing step returns a distinct sentinel error.
func (r *Registry) Resolve(name string, env Env) (*EntryPoint, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no test name given", ErrNotFound)
	}

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	test, err := construct(factory, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConstructionFailed, name, err)
	}
	if test == nil {
		return nil, fmt.Errorf("%w: %s: factory returned no test", ErrConstructionFailed, name)
	}

	launcher, ok := test.(Launcher)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%T)", ErrEntryPointMissing, name, test)
	}

	return &EntryPoint{Test: test, Launch: launcher.Launch}, nil
}

func construct(factory Factory, env Env) (test Test, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panicked: %v", r)
		}
	}()
	return factory(env)
}

// Default is the process-wide registry populated by package init functions.
var Default = New()

// Register adds a factory to the Default registry.
func Register(name string, factory Factory) error {
	return Default.Register(name, factory)
}

// MustRegister adds a factory to the Default registry and panics on error.
func MustRegister(name string, factory Factory) {
	Default.MustRegister(name, factory)
}

// Names lists the tests of the Default registry.
func Names() []string {
	return Default.Names()
}
