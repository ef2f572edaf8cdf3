package execx

import (
	"os"
	"strings"
	"time"

	"github.com/trly/binary-driver/internal/errdefs"
)

// Factory builds processes for a single binary.
type Factory interface {
	// UseBinary sets the binary every process is built for.
	UseBinary(path string) (Factory, error)
	Binary() string
	// SetTimeout sets the timeout given to new processes. Zero disables it.
	SetTimeout(d time.Duration) Factory
	Timeout() time.Duration
	// Create builds a process running the binary with args.
	Create(args ...string) (Process, error)
}

// ProcessFactory is the default Factory, producing ExecProcess values.
type ProcessFactory struct {
	binary  string
	timeout time.Duration
}

var _ Factory = (*ProcessFactory)(nil)

// NewProcessFactory creates a factory bound to binary.
func NewProcessFactory(binary string) (*ProcessFactory, error) {
	f := &ProcessFactory{}
	if _, err := f.UseBinary(binary); err != nil {
		return nil, err
	}
	return f, nil
}

// UseBinary validates that path is an executable file and records it.
func (f *ProcessFactory) UseBinary(path string) (Factory, error) {
	if !IsExecutable(path) {
		return f, errdefs.NewInvalidArgumentError("`%s` is not an executable binary", path)
	}
	f.binary = path
	return f, nil
}

// Binary returns the configured binary path.
func (f *ProcessFactory) Binary() string {
	return f.binary
}

// SetTimeout sets the timeout for processes created afterwards.
func (f *ProcessFactory) SetTimeout(d time.Duration) Factory {
	f.timeout = d
	return f
}

// Timeout returns the configured timeout.
func (f *ProcessFactory) Timeout() time.Duration {
	return f.timeout
}

// Create builds a process for the binary with args.
func (f *ProcessFactory) Create(args ...string) (Process, error) {
	cmd, err := f.Command(args...)
	if err != nil {
		return nil, err
	}
	return NewProcess(cmd), nil
}

// Command builds the descriptor Create runs.
func (f *ProcessFactory) Command(args ...string) (Command, error) {
	if f.binary == "" {
		return Command{}, errdefs.NewInvalidArgumentError("no binary set")
	}
	return Command{
		Path:    f.binary,
		Args:    append([]string(nil), args...),
		Env:     InheritedEnv(),
		Timeout: f.timeout,
	}, nil
}

// InheritedEnv returns the parent environment, keeping only KEY=value entries.
func InheritedEnv() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			out = append(out, kv)
		}
	}
	return out
}
