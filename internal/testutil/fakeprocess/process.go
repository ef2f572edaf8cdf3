// Package fakeprocess provides fake implementations of execx.Process and
// execx.Factory for testing.
package fakeprocess

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/trly/binary-driver/internal/errdefs"
	"github.com/trly/binary-driver/internal/execx"
)

// Chunk is one piece of output replayed to the output callback.
type Chunk struct {
	Channel execx.Channel
	Data    string
}

// Process is a fake execx.Process. By default it succeeds with no output.
type Process struct {
	mu sync.Mutex

	commandLine string
	chunks      []Chunk
	output      *string
	errorOutput *string
	success     bool
	exitCode    int
	fault       error
	runs        int
}

var _ execx.Process = (*Process)(nil)

// New creates a fake process reporting commandLine.
func New(commandLine string) *Process {
	return &Process{commandLine: commandLine, success: true}
}

// SetOutput sets the captured stdout.
func (p *Process) SetOutput(out string) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = &out
	return p
}

// SetErrorOutput sets the captured stderr.
func (p *Process) SetErrorOutput(out string) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorOutput = &out
	return p
}

// SetSuccess sets whether the process reports a successful exit.
func (p *Process) SetSuccess(success bool) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.success = success
	if success {
		p.exitCode = 0
	} else if p.exitCode == 0 {
		p.exitCode = 1
	}
	return p
}

// SetFault makes Run return err without replaying any output.
func (p *Process) SetFault(err error) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fault = err
	p.success = false
	p.exitCode = -1
	return p
}

// AddChunk queues a chunk replayed to the callback on every run. Unless set
// explicitly, Output and ErrorOutput are the concatenated chunks.
func (p *Process) AddChunk(channel execx.Channel, data string) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, Chunk{Channel: channel, Data: data})
	return p
}

// Run replays the queued chunks to fn.
func (p *Process) Run(_ context.Context, fn execx.OutputFunc) error {
	p.mu.Lock()
	p.runs++
	fault := p.fault
	chunks := append([]Chunk(nil), p.chunks...)
	p.mu.Unlock()

	if fault != nil {
		return fault
	}
	if fn != nil {
		for _, c := range chunks {
			fn(c.Channel, c.Data)
		}
	}
	return nil
}

// Runs returns the number of Run calls.
func (p *Process) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

// IsSuccessful implements execx.Process.
func (p *Process) IsSuccessful() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.success
}

// ExitCode implements execx.Process.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Output implements execx.Process.
func (p *Process) Output() string {
	return p.captured(execx.Stdout, p.output)
}

// ErrorOutput implements execx.Process.
func (p *Process) ErrorOutput() string {
	return p.captured(execx.Stderr, p.errorOutput)
}

// CommandLine implements execx.Process.
func (p *Process) CommandLine() string {
	return p.commandLine
}

func (p *Process) captured(ch execx.Channel, explicit *string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if explicit != nil {
		return *explicit
	}
	var sb strings.Builder
	for _, c := range p.chunks {
		if c.Channel == ch {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Call represents a captured Create call.
type Call struct {
	Args []string
}

// Factory is a fake execx.Factory returning preset processes.
type Factory struct {
	binary       string
	timeout      time.Duration
	processes    []*Process
	calls        []Call
	timeoutCalls []time.Duration
	createErr    error
}

var _ execx.Factory = (*Factory)(nil)

// NewFactory creates a fake factory for binary.
func NewFactory(binary string) *Factory {
	return &Factory{binary: binary}
}

// AddProcess queues a process returned by the next Create call. The last
// queued process is reused once the queue is drained.
func (f *Factory) AddProcess(p *Process) *Factory {
	f.processes = append(f.processes, p)
	return f
}

// SetCreateError makes Create fail with err.
func (f *Factory) SetCreateError(err error) *Factory {
	f.createErr = err
	return f
}

// UseBinary records path without validating it.
func (f *Factory) UseBinary(path string) (execx.Factory, error) {
	f.binary = path
	return f, nil
}

// Binary implements execx.Factory.
func (f *Factory) Binary() string {
	return f.binary
}

// SetTimeout implements execx.Factory and records the call.
func (f *Factory) SetTimeout(d time.Duration) execx.Factory {
	f.timeout = d
	f.timeoutCalls = append(f.timeoutCalls, d)
	return f
}

// Timeout implements execx.Factory.
func (f *Factory) Timeout() time.Duration {
	return f.timeout
}

// Create records args and returns the next queued process.
func (f *Factory) Create(args ...string) (execx.Process, error) {
	f.calls = append(f.calls, Call{Args: append([]string(nil), args...)})

	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.binary == "" {
		return nil, errdefs.NewInvalidArgumentError("no binary set")
	}
	if len(f.processes) == 0 {
		return New(f.binary + " " + strings.Join(args, " ")), nil
	}

	p := f.processes[0]
	if len(f.processes) > 1 {
		f.processes = f.processes[1:]
	}
	return p, nil
}

// GetCalls returns all captured Create calls.
func (f *Factory) GetCalls() []Call {
	return f.calls
}

// GetTimeoutCalls returns every value passed to SetTimeout.
func (f *Factory) GetTimeoutCalls() []time.Duration {
	return f.timeoutCalls
}
