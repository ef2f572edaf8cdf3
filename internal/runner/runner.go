// Package runner executes driver processes and reports their outcome.
package runner

import (
	"context"

	"github.com/google/uuid"

	"github.com/trly/binary-driver/internal/errdefs"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/listener"
	"github.com/trly/binary-driver/internal/log"
)

// Runner executes a process, streaming its output to listeners.
type Runner interface {
	// Run blocks until the process exits and returns its stdout. With
	// bypassErrors set, failures are logged and an empty output is returned.
	Run(ctx context.Context, process execx.Process, listeners *listener.Registry, bypassErrors bool) (string, error)
}

// ProcessRunner is the default Runner. It keeps no state between runs
// besides its logger and driver name.
type ProcessRunner struct {
	logger log.Logger
	name   string
}

var _ Runner = (*ProcessRunner)(nil)

// NewProcessRunner creates a ProcessRunner logging on behalf of driver name.
func NewProcessRunner(logger log.Logger, name string) *ProcessRunner {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &ProcessRunner{logger: logger, name: name}
}

// SetLogger replaces the logger.
func (r *ProcessRunner) SetLogger(logger log.Logger) *ProcessRunner {
	r.logger = logger
	return r
}

// Logger returns the logger.
func (r *ProcessRunner) Logger() log.Logger {
	return r.logger
}

// Name returns the driver name used in log records.
func (r *ProcessRunner) Name() string {
	return r.name
}

// Run executes process. Every chunk of output is handed to the listeners of
// the registry in registration order.
func (r *ProcessRunner) Run(ctx context.Context, process execx.Process, listeners *listener.Registry, bypassErrors bool) (string, error) {
	runID := uuid.NewString()
	cmdLine := process.CommandLine()

	r.logger.Info("running command", "driver", r.name, "cmd", cmdLine, "run_id", runID)

	var snapshot []listener.Listener
	if listeners != nil {
		snapshot = listeners.Listeners()
	}

	err := process.Run(ctx, func(channel execx.Channel, chunk string) {
		for _, l := range snapshot {
			l.Handle(channel, chunk)
		}
	})
	if err != nil && !bypassErrors {
		return "", r.failure(cmdLine, runID, err)
	}

	// A suppressed fault counts as a failure even when the exit status was zero.
	if err != nil || !process.IsSuccessful() {
		if !bypassErrors {
			return "", r.failure(cmdLine, runID, nil)
		}

		args := []any{
			"driver", r.name,
			"cmd", cmdLine,
			"run_id", runID,
			"exit_code", process.ExitCode(),
			"stderr", process.ErrorOutput(),
		}
		if err != nil {
			args = append(args, "error", err.Error())
		}
		r.logger.Error("failed to execute command", args...)
		return "", nil
	}

	r.logger.Info("executed command successfully", "driver", r.name, "run_id", runID)
	return process.Output(), nil
}

func (r *ProcessRunner) failure(cmdLine, runID string, cause error) error {
	args := []any{"driver", r.name, "cmd", cmdLine, "run_id", runID}
	if cause != nil {
		args = append(args, "error", cause.Error())
	}
	r.logger.Error("failed to execute command", args...)
	return errdefs.NewExecutionFailureError(r.name, cmdLine, cause)
}
