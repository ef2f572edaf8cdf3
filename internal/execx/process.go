package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// ErrProcessTimedOut is returned by Process.Run when the command outlives its timeout.
var ErrProcessTimedOut = errors.New("process timed out")

// OutputFunc receives every chunk of output as the process produces it.
type OutputFunc func(channel Channel, chunk string)

// Process runs one command and exposes its outcome.
type Process interface {
	// Run starts the process and blocks until it exits. The error is only
	// set for runtime faults (start failure, timeout, cancellation); a
	// non-zero exit is reported by IsSuccessful.
	Run(ctx context.Context, fn OutputFunc) error
	IsSuccessful() bool
	ExitCode() int
	Output() string
	ErrorOutput() string
	CommandLine() string
}

// pipeDrainDelay bounds how long Run keeps reading output once the process
// has exited or been cancelled. Descendants that still hold the output pipes
// after that are cut off.
const pipeDrainDelay = time.Second

// ExecProcess implements Process using os/exec.
type ExecProcess struct {
	cmd Command

	mu       sync.Mutex
	notifyMu sync.Mutex
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitCode int
	ran      bool
}

var _ Process = (*ExecProcess)(nil)

// NewProcess creates a Process for cmd.
func NewProcess(cmd Command) *ExecProcess {
	return &ExecProcess{cmd: cmd, exitCode: -1}
}

// Command returns the descriptor the process was built from.
func (p *ExecProcess) Command() Command {
	return p.cmd
}

// CommandLine returns the quoted command line.
func (p *ExecProcess) CommandLine() string {
	return p.cmd.String()
}

// Run executes the command, calling fn for every chunk written to stdout or
// stderr. Calls to fn never overlap. The command runs in its own process
// group, which is killed as a whole when the timeout or ctx expires.
func (p *ExecProcess) Run(ctx context.Context, fn OutputFunc) error {
	p.mu.Lock()
	p.stdout.Reset()
	p.stderr.Reset()
	p.exitCode = -1
	p.ran = false
	p.mu.Unlock()

	if p.cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, p.cmd.Path, p.cmd.Args...)
	c.Env = p.cmd.Env
	c.Stdout = &channelWriter{p: p, channel: Stdout, buf: &p.stdout, fn: fn}
	c.Stderr = &channelWriter{p: p, channel: Stderr, buf: &p.stderr, fn: fn}
	c.WaitDelay = pipeDrainDelay

	// exec only calls Cancel when ctx is done before the process exits.
	var interrupted atomic.Bool
	kill := setProcessGroup(c)
	c.Cancel = func() error {
		interrupted.Store(true)
		return kill()
	}

	if err := c.Start(); err != nil {
		return fmt.Errorf("spawn error: %w", err)
	}
	waitErr := c.Wait()

	p.mu.Lock()
	p.ran = true
	if c.ProcessState != nil {
		p.exitCode = c.ProcessState.ExitCode()
	}
	p.mu.Unlock()

	if interrupted.Load() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && p.cmd.Timeout > 0 {
			return fmt.Errorf("%w after %s", ErrProcessTimedOut, p.cmd.Timeout)
		}
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.As(waitErr, &exitErr):
		return nil
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// The process exited; a detached descendant kept the pipes open.
		return nil
	default:
		return waitErr
	}
}

// channelWriter records one output channel and forwards it to the callback.
type channelWriter struct {
	p       *ExecProcess
	channel Channel
	buf     *bytes.Buffer
	fn      OutputFunc
}

func (w *channelWriter) Write(b []byte) (int, error) {
	data := string(b)
	w.p.mu.Lock()
	w.buf.WriteString(data)
	w.p.mu.Unlock()
	if w.fn != nil {
		w.p.notifyMu.Lock()
		w.fn(w.channel, data)
		w.p.notifyMu.Unlock()
	}
	return len(b), nil
}

// IsSuccessful reports whether the last run exited with status zero.
func (p *ExecProcess) IsSuccessful() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ran && p.exitCode == 0
}

// ExitCode returns the exit status of the last run, or -1.
func (p *ExecProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Output returns everything the process wrote to stdout.
func (p *ExecProcess) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout.String()
}

// ErrorOutput returns everything the process wrote to stderr.
func (p *ExecProcess) ErrorOutput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr.String()
}
