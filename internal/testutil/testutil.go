// Package testutil provides common test utilities and helpers to reduce boilerplate in test files.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/listener"
	"github.com/trly/binary-driver/internal/log"
)

// NewTestLogger creates a logger that writes to t.Logf for testing.
// This ensures test output is properly captured by the test framework.
func NewTestLogger(t testing.TB) log.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	handler := &testHandler{t: t, opts: opts}
	slogLogger := slog.New(handler)

	return log.NewSlogAdapter(slogLogger)
}

// LogEntry is one record captured by RecordingLogger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger captures every record so tests can count them per level.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ log.Logger = (*RecordingLogger)(nil)

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Debug records a debug message.
func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }

// Info records an info message.
func (l *RecordingLogger) Info(msg string, args ...any) { l.record("info", msg, args) }

// Warn records a warning message.
func (l *RecordingLogger) Warn(msg string, args ...any) { l.record("warn", msg, args) }

// Error records an error message.
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

// Entries returns the records of level, or every record when level is empty.
func (l *RecordingLogger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of records of level.
func (l *RecordingLogger) Count(level string) int {
	return len(l.Entries(level))
}

// Attr returns the value of key in the entry's key/value args.
func (e LogEntry) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if k, ok := e.Args[i].(string); ok && k == key {
			return e.Args[i+1], true
		}
	}
	return nil, false
}

// Chunk is one Handle call captured by RecordingListener.
type Chunk struct {
	Channel execx.Channel
	Data    string
}

// RecordingListener captures every chunk it handles and re-emits it on "received".
type RecordingListener struct {
	listener.Emitter

	mu     sync.Mutex
	chunks []Chunk
}

var _ listener.Listener = (*RecordingListener)(nil)

// NewRecordingListener creates an empty RecordingListener.
func NewRecordingListener() *RecordingListener {
	return &RecordingListener{}
}

// Handle records the chunk and emits ("received", channel, chunk).
func (l *RecordingListener) Handle(channel execx.Channel, chunk string) {
	l.mu.Lock()
	l.chunks = append(l.chunks, Chunk{Channel: channel, Data: chunk})
	l.mu.Unlock()
	l.Emit("received", channel, chunk)
}

// ForwardedEvents returns "received".
func (l *RecordingListener) ForwardedEvents() []string {
	return []string{"received"}
}

// Chunks returns the chunks handled so far.
func (l *RecordingListener) Chunks() []Chunk {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Chunk(nil), l.chunks...)
}

// ConfigOption allows customization of test config settings.
type ConfigOption func(*config.Settings)

// WithBinaries sets the candidate binaries.
func WithBinaries(binaries ...string) ConfigOption {
	return func(cfg *config.Settings) {
		cfg.Binaries = binaries
	}
}

// WithTimeout sets the process timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(cfg *config.Settings) {
		cfg.Timeout = d
	}
}

// WithVerbose sets verbose logging.
func WithVerbose(verbose bool) ConfigOption {
	return func(cfg *config.Settings) {
		cfg.Verbose = verbose
	}
}

// WithBypassErrors sets error bypassing.
func WithBypassErrors(bypass bool) ConfigOption {
	return func(cfg *config.Settings) {
		cfg.BypassErrors = bypass
	}
}

// NewMockConfig creates a config provider for testing with optional customizations.
func NewMockConfig(_ testing.TB, opts ...ConfigOption) config.Provider {
	cfg := &config.Settings{
		OutPrefix: config.DefaultOutPrefix,
		ErrPrefix: config.DefaultErrPrefix,
		Verbose:   true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	configProvider := config.NewDefaultConfigProvider()
	configProvider.SetConfig(cfg)
	return configProvider
}

// testHandler implements slog.Handler to write to testing.TB.
type testHandler struct {
	t     testing.TB
	opts  *slog.HandlerOptions
	attrs []slog.Attr
}

func (h *testHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *testHandler) Handle(_ context.Context, record slog.Record) error {
	msg := record.Message
	for _, a := range h.attrs {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	h.t.Logf("[%s] %s", record.Level.String(), msg)
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &testHandler{t: h.t, opts: h.opts, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *testHandler) WithGroup(_ string) slog.Handler {
	return &testHandler{t: h.t, opts: h.opts, attrs: h.attrs}
}
