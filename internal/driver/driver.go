// Package driver wraps one external binary behind a small API: locate it,
// configure it, run it and observe its output.
package driver

import (
	"context"
	"fmt"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/errdefs"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/listener"
	"github.com/trly/binary-driver/internal/log"
	"github.com/trly/binary-driver/internal/runner"
)

// Driver is the composition root for one binary. Events forwarded by
// listeners are re-emitted on the driver itself, so callers subscribe with
// Driver.On. A Driver must not be used from several goroutines at once.
type Driver struct {
	listener.Emitter

	name          string
	factory       execx.Factory
	logger        log.Logger
	configuration config.Store
	runner        runner.Runner
	listeners     *listener.Registry
}

// New creates a Driver around factory and applies the configured timeout.
func New(name string, factory execx.Factory, logger log.Logger, configuration config.Store) (*Driver, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if configuration == nil {
		configuration = config.NewConfiguration(nil)
	}

	d := &Driver{
		name:          name,
		factory:       factory,
		logger:        logger,
		configuration: configuration,
		runner:        runner.NewProcessRunner(logger, name),
		listeners:     listener.NewRegistry(),
	}
	if err := d.applyProcessConfiguration(); err != nil {
		return nil, err
	}
	return d, nil
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	logger        log.Logger
	configuration config.Store
	finder        execx.Finder
}

// WithLogger sets the driver logger. Without it records are discarded.
func WithLogger(logger log.Logger) Option {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// WithConfiguration uses configuration as is.
func WithConfiguration(configuration config.Store) Option {
	return func(o *loadOptions) {
		o.configuration = configuration
	}
}

// WithConfigurationMap wraps data in a Configuration.
func WithConfigurationMap(data map[string]any) Option {
	return func(o *loadOptions) {
		o.configuration = config.NewConfiguration(data)
	}
}

// WithFinder replaces the PATH lookup used for candidates that are not paths.
func WithFinder(finder execx.Finder) Option {
	return func(o *loadOptions) {
		o.finder = finder
	}
}

// Load resolves the first usable binary among candidates and builds a Driver
// for it. A candidate is used directly when it is an executable file and is
// otherwise looked up on PATH.
func Load(name string, candidates []string, opts ...Option) (*Driver, error) {
	o := loadOptions{finder: execx.NewPathFinder()}
	for _, opt := range opts {
		opt(&o)
	}

	binary, ok := Resolve(o.finder, candidates)
	if !ok {
		return nil, errdefs.NewExecutableNotFoundError(candidates)
	}

	factory, err := execx.NewProcessFactory(binary)
	if err != nil {
		return nil, err
	}

	return New(name, factory, o.logger, o.configuration)
}

// Resolve returns the first candidate that is an executable file or that
// finder locates.
func Resolve(finder execx.Finder, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if execx.IsExecutable(candidate) {
			return candidate, true
		}
		if p, ok := finder.Find(candidate); ok {
			return p, true
		}
	}
	return "", false
}

// Name identifies the driver in log records.
func (d *Driver) Name() string {
	return d.name
}

// Command runs the binary with args and returns its stdout. listeners are
// attached for this call only; their forwarded events surface on the driver.
func (d *Driver) Command(ctx context.Context, args []string, bypassErrors bool, listeners ...listener.Listener) (string, error) {
	process, err := d.factory.Create(args...)
	if err != nil {
		return "", err
	}

	registry := d.listeners
	if len(listeners) > 0 {
		registry = d.listeners.Clone()
		var added []listener.Listener
		for _, l := range listeners {
			// Persistent listeners already forward to the driver.
			if registry.Has(l) {
				continue
			}
			registry.Register(l, d)
			added = append(added, l)
		}
		defer func() {
			for _, l := range added {
				if err := registry.Unregister(l); err != nil {
					d.logger.Warn("failed to detach listener", "driver", d.name, "error", err)
				}
			}
		}()
	}

	return d.runner.Run(ctx, process, registry, bypassErrors)
}

// Listen attaches l to every subsequent command.
func (d *Driver) Listen(l listener.Listener) *Driver {
	d.listeners.Register(l, d)
	return d
}

// Unlisten detaches a listener added with Listen.
func (d *Driver) Unlisten(l listener.Listener) error {
	if err := d.listeners.Unregister(l); err != nil {
		return fmt.Errorf("unlisten %s: %w", d.name, err)
	}
	return nil
}

// Listeners returns the persistent listener registry.
func (d *Driver) Listeners() *listener.Registry {
	return d.listeners
}

// Configuration returns the driver configuration.
func (d *Driver) Configuration() config.Store {
	return d.configuration
}

// SetConfiguration replaces the configuration and re-applies its timeout.
func (d *Driver) SetConfiguration(configuration config.Store) error {
	d.configuration = configuration
	return d.applyProcessConfiguration()
}

// ProcessFactory returns the process factory.
func (d *Driver) ProcessFactory() execx.Factory {
	return d.factory
}

// SetProcessFactory replaces the factory and applies the configured timeout to it.
func (d *Driver) SetProcessFactory(factory execx.Factory) error {
	d.factory = factory
	return d.applyProcessConfiguration()
}

// Logger returns the driver logger.
func (d *Driver) Logger() log.Logger {
	return d.logger
}

// SetLogger replaces the logger, including the one used by the default runner.
func (d *Driver) SetLogger(logger log.Logger) *Driver {
	d.logger = logger
	if pr, ok := d.runner.(*runner.ProcessRunner); ok {
		pr.SetLogger(logger)
	}
	return d
}

// ProcessRunner returns the runner.
func (d *Driver) ProcessRunner() runner.Runner {
	return d.runner
}

// SetProcessRunner replaces the runner.
func (d *Driver) SetProcessRunner(r runner.Runner) *Driver {
	d.runner = r
	return d
}

func (d *Driver) applyProcessConfiguration() error {
	timeout, ok, err := config.Timeout(d.configuration)
	if err != nil {
		return errdefs.NewInvalidArgumentError("%s: %v", d.name, err)
	}
	if ok {
		d.factory.SetTimeout(timeout)
	}
	return nil
}
