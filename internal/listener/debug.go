package listener

import (
	"strings"

	"github.com/trly/binary-driver/internal/execx"
)

// Defaults used by NewDebugListener.
const (
	DefaultOutPrefix  = "[OUT] "
	DefaultErrPrefix  = "[ERROR] "
	DefaultDebugEvent = "debug"
)

// DebugListener re-emits every line of output, prefixed by its channel.
// Handlers receive (line string, trailing bool); trailing marks the empty
// piece left after a chunk's final newline.
type DebugListener struct {
	Emitter

	prefixOut string
	prefixErr string
	eventOut  string
	eventErr  string
}

var _ Listener = (*DebugListener)(nil)

// DebugOption configures a DebugListener.
type DebugOption func(*DebugListener)

// WithPrefixes sets the prefixes for stdout and stderr lines.
func WithPrefixes(out, err string) DebugOption {
	return func(d *DebugListener) {
		d.prefixOut = out
		d.prefixErr = err
	}
}

// WithEvents sets the events stdout and stderr lines are emitted on.
func WithEvents(out, err string) DebugOption {
	return func(d *DebugListener) {
		d.eventOut = out
		d.eventErr = err
	}
}

// NewDebugListener creates a DebugListener emitting on "debug".
func NewDebugListener(opts ...DebugOption) *DebugListener {
	d := &DebugListener{
		prefixOut: DefaultOutPrefix,
		prefixErr: DefaultErrPrefix,
		eventOut:  DefaultDebugEvent,
		eventErr:  DefaultDebugEvent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle emits one event per line of chunk. Unknown channels are ignored.
func (d *DebugListener) Handle(channel execx.Channel, chunk string) {
	switch channel {
	case execx.Stderr:
		d.emitLines(d.eventErr, d.prefixErr, chunk)
	case execx.Stdout:
		d.emitLines(d.eventOut, d.prefixOut, chunk)
	}
}

// ForwardedEvents returns the distinct events this listener emits on.
func (d *DebugListener) ForwardedEvents() []string {
	if d.eventErr == d.eventOut {
		return []string{d.eventErr}
	}
	return []string{d.eventErr, d.eventOut}
}

func (d *DebugListener) emitLines(event, prefix, lines string) {
	parts := strings.Split(lines, "\n")
	for i, line := range parts {
		trailing := i > 0 && i == len(parts)-1 && line == ""
		d.Emit(event, prefix+line, trailing)
	}
}
