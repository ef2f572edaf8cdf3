package driver

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/errdefs"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/listener"
	"github.com/trly/binary-driver/internal/testutil"
	"github.com/trly/binary-driver/internal/testutil/fakeprocess"
)

const driverName = "Implementation"

// newBinary writes an executable shell script named name into a fresh
// directory and returns its path.
func newBinary(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH; skipping")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// onPath puts the directory of bin first on PATH.
func onPath(t *testing.T, bin string) {
	t.Helper()
	t.Setenv("PATH", filepath.Dir(bin)+string(os.PathListSeparator)+os.Getenv("PATH"))
}

type mapFinder map[string]string

func (m mapFinder) Find(name string) (string, bool) {
	p, ok := m[name]
	return p, ok
}

func newFakeDriver(t *testing.T, process *fakeprocess.Process) (*Driver, *fakeprocess.Factory, *testutil.RecordingLogger) {
	t.Helper()
	factory := fakeprocess.NewFactory("/usr/bin/php").AddProcess(process)
	logger := testutil.NewRecordingLogger()
	d, err := New(driverName, factory, logger, nil)
	require.NoError(t, err)
	return d, factory, logger
}

func TestLoad(t *testing.T) {
	t.Run("simple load with binary path", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")

		d, err := Load(driverName, []string{bin})

		require.NoError(t, err)
		assert.Equal(t, bin, d.ProcessFactory().Binary())
		assert.Equal(t, driverName, d.Name())
	})

	t.Run("multiple load with binary path", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")

		d, err := Load(driverName, []string{"/zz/path/to/unexisting/command", bin})

		require.NoError(t, err)
		assert.Equal(t, bin, d.ProcessFactory().Binary())
	})

	t.Run("simple load with binary name", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")
		onPath(t, bin)

		d, err := Load(driverName, []string{"fakephp"})

		require.NoError(t, err)
		assert.Equal(t, bin, d.ProcessFactory().Binary())
	})

	t.Run("multiple load with binary name", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")
		onPath(t, bin)

		d, err := Load(driverName, []string{"bachibouzouk", "fakephp"})

		require.NoError(t, err)
		assert.Equal(t, bin, d.ProcessFactory().Binary())
	})

	t.Run("first resolvable candidate wins", func(t *testing.T) {
		first := newBinary(t, "first", "true")
		second := newBinary(t, "second", "true")
		finder := mapFinder{"second": second}

		d, err := Load(driverName, []string{"missing", "second", first}, WithFinder(finder))

		require.NoError(t, err)
		assert.Equal(t, second, d.ProcessFactory().Binary())
	})

	t.Run("load with multiple candidates expecting a failure", func(t *testing.T) {
		_, err := Load(driverName, []string{"bachibouzouk", "moribon"}, WithFinder(mapFinder{}))

		require.Error(t, err)
		assert.True(t, errdefs.IsExecutableNotFoundError(err))

		var notFound *errdefs.ExecutableNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, []string{"bachibouzouk", "moribon"}, notFound.Candidates)
	})

	t.Run("load with unique candidate expecting a failure", func(t *testing.T) {
		_, err := Load(driverName, []string{"bachibouzouk"}, WithFinder(mapFinder{}))

		assert.True(t, errdefs.IsExecutableNotFoundError(err))
	})

	t.Run("non executable file path falls back to lookup", func(t *testing.T) {
		plain := filepath.Join(t.TempDir(), "plain")
		require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))

		_, err := Load(driverName, []string{plain}, WithFinder(mapFinder{}))

		assert.True(t, errdefs.IsExecutableNotFoundError(err))
	})

	t.Run("load with custom logger", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")
		logger := testutil.NewRecordingLogger()

		d, err := Load(driverName, []string{bin}, WithLogger(logger))

		require.NoError(t, err)
		assert.Same(t, logger, d.Logger())
	})

	t.Run("load without logger uses a discarding logger", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")

		d, err := Load(driverName, []string{bin})

		require.NoError(t, err)
		assert.NotNil(t, d.Logger())
	})

	t.Run("load with custom configuration as map", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")
		conf := map[string]any{"timeout": 200}

		d, err := Load(driverName, []string{bin}, WithConfigurationMap(conf))

		require.NoError(t, err)
		assert.Equal(t, conf, d.Configuration().All())
	})

	t.Run("load with custom configuration as store", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")
		conf := config.NewConfiguration(nil)

		d, err := Load(driverName, []string{bin}, WithConfiguration(conf))

		require.NoError(t, err)
		assert.Same(t, conf, d.Configuration())
	})

	t.Run("timeout is set on construction", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")

		d, err := Load(driverName, []string{bin}, WithConfigurationMap(map[string]any{"timeout": 42}))

		require.NoError(t, err)
		assert.Equal(t, 42*time.Second, d.ProcessFactory().Timeout())
	})

	t.Run("invalid timeout fails", func(t *testing.T) {
		bin := newBinary(t, "fakephp", "true")

		_, err := Load(driverName, []string{bin}, WithConfigurationMap(map[string]any{"timeout": "whenever"}))

		assert.True(t, errdefs.IsInvalidArgumentError(err))
	})
}

func TestDriver_GettersAndSetters(t *testing.T) {
	t.Run("process factory", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("x"))
		factory := fakeprocess.NewFactory("/bin/other")

		require.NoError(t, d.SetProcessFactory(factory))
		assert.Same(t, factory, d.ProcessFactory())
	})

	t.Run("configuration", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("x"))
		conf := config.NewConfiguration(map[string]any{"threads": 2})

		require.NoError(t, d.SetConfiguration(conf))
		assert.Same(t, conf, d.Configuration())
	})

	t.Run("logger", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("x"))
		logger := testutil.NewRecordingLogger()

		d.SetLogger(logger)

		assert.Same(t, logger, d.Logger())
		_, err := d.Command(context.Background(), nil, false)
		require.NoError(t, err)
		assert.Equal(t, 2, logger.Count("info"))
	})

	t.Run("process runner", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("x"))
		r := &recordingRunner{output: "from runner"}

		assert.Same(t, d, d.SetProcessRunner(r))
		assert.Same(t, r, d.ProcessRunner())

		out, err := d.Command(context.Background(), []string{"-a"}, true)
		require.NoError(t, err)
		assert.Equal(t, "from runner", out)
		assert.True(t, r.bypass)
	})

	t.Run("timeout is set on configuration setting", func(t *testing.T) {
		d, factory, _ := newFakeDriver(t, fakeprocess.New("x"))

		require.NoError(t, d.SetConfiguration(config.NewConfiguration(map[string]any{"timeout": 42})))

		assert.Equal(t, 42*time.Second, factory.Timeout())
	})

	t.Run("timeout is set on process factory setting", func(t *testing.T) {
		factory := fakeprocess.NewFactory("/usr/bin/php")
		d, err := New(driverName, factory, nil, config.NewConfiguration(map[string]any{"timeout": 42}))
		require.NoError(t, err)

		other := fakeprocess.NewFactory("/usr/bin/php")
		require.NoError(t, d.SetProcessFactory(other))

		assert.Equal(t, []time.Duration{42 * time.Second}, other.GetTimeoutCalls())
	})

	t.Run("configuration without timeout leaves the factory alone", func(t *testing.T) {
		d, factory, _ := newFakeDriver(t, fakeprocess.New("x"))

		require.NoError(t, d.SetConfiguration(config.NewConfiguration(nil)))

		assert.Empty(t, factory.GetTimeoutCalls())
	})
}

type recordingRunner struct {
	output    string
	bypass    bool
	listeners []listener.Listener
}

func (r *recordingRunner) Run(_ context.Context, _ execx.Process, listeners *listener.Registry, bypassErrors bool) (string, error) {
	r.bypass = bypassErrors
	r.listeners = listeners.Listeners()
	return r.output, nil
}

func TestDriver_Command(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the process output", func(t *testing.T) {
		d, factory, logger := newFakeDriver(t, fakeprocess.New("php -a").SetOutput("loubda"))

		out, err := d.Command(ctx, []string{"-a"}, false)

		require.NoError(t, err)
		assert.Equal(t, "loubda", out)
		require.Len(t, factory.GetCalls(), 1)
		assert.Equal(t, []string{"-a"}, factory.GetCalls()[0].Args)
		assert.Equal(t, 2, logger.Count("info"))
		assert.Zero(t, logger.Count("error"))
	})

	t.Run("failure raises an execution failure", func(t *testing.T) {
		d, _, logger := newFakeDriver(t, fakeprocess.New("php -a").SetSuccess(false))

		_, err := d.Command(ctx, []string{"-a"}, false)

		assert.True(t, errdefs.IsExecutionFailureError(err))
		assert.Equal(t, 1, logger.Count("info"))
		assert.Equal(t, 1, logger.Count("error"))
	})

	t.Run("bypassed failure returns empty output", func(t *testing.T) {
		d, _, logger := newFakeDriver(t, fakeprocess.New("php -a").SetSuccess(false).SetOutput("partial"))

		out, err := d.Command(ctx, []string{"-a"}, true)

		require.NoError(t, err)
		assert.Equal(t, "", out)
		assert.Equal(t, 1, logger.Count("info"))
		assert.Equal(t, 1, logger.Count("error"))
	})

	t.Run("factory errors propagate even when bypassing", func(t *testing.T) {
		factory := fakeprocess.NewFactory("")
		d, err := New(driverName, factory, nil, nil)
		require.NoError(t, err)

		_, err = d.Command(ctx, []string{"-a"}, true)

		assert.True(t, errdefs.IsInvalidArgumentError(err))
	})

	t.Run("per call listeners only see their call", func(t *testing.T) {
		process := fakeprocess.New("php").AddChunk(execx.Stdout, "chunk")
		d, _, _ := newFakeDriver(t, process)
		l := testutil.NewRecordingListener()

		var forwarded int
		d.On("received", func(_ ...any) { forwarded++ })

		_, err := d.Command(ctx, []string{"-a"}, false, l)
		require.NoError(t, err)

		assert.Len(t, l.Chunks(), 1)
		assert.Equal(t, 1, forwarded)
		assert.Zero(t, l.ListenerCount("received"))
		assert.Zero(t, d.Listeners().Len())

		_, err = d.Command(ctx, []string{"-a"}, false)
		require.NoError(t, err)

		assert.Len(t, l.Chunks(), 1)
		assert.Equal(t, 1, forwarded)
	})

	t.Run("per call listeners are detached after a failure", func(t *testing.T) {
		process := fakeprocess.New("php").AddChunk(execx.Stderr, "fatal").SetSuccess(false)
		d, _, _ := newFakeDriver(t, process)
		l := testutil.NewRecordingListener()

		_, err := d.Command(ctx, nil, false, l)

		require.Error(t, err)
		assert.Len(t, l.Chunks(), 1)
		assert.Zero(t, l.ListenerCount("received"))
	})

	t.Run("persistent listeners see every call", func(t *testing.T) {
		process := fakeprocess.New("php").AddChunk(execx.Stdout, "chunk")
		d, _, _ := newFakeDriver(t, process)
		persistent := testutil.NewRecordingListener()
		temporary := testutil.NewRecordingListener()

		var forwarded int
		d.On("received", func(_ ...any) { forwarded++ })

		d.Listen(persistent)
		_, err := d.Command(ctx, nil, false, temporary)
		require.NoError(t, err)
		_, err = d.Command(ctx, nil, false)
		require.NoError(t, err)

		assert.Len(t, persistent.Chunks(), 2)
		assert.Len(t, temporary.Chunks(), 1)
		assert.Equal(t, 3, forwarded)
		assert.Equal(t, []listener.Listener{persistent}, d.Listeners().Listeners())
	})

	t.Run("passing a persistent listener per call keeps it attached", func(t *testing.T) {
		process := fakeprocess.New("php").AddChunk(execx.Stdout, "chunk")
		d, _, _ := newFakeDriver(t, process)
		l := testutil.NewRecordingListener()

		var forwarded int
		d.On("received", func(_ ...any) { forwarded++ })

		d.Listen(l)
		_, err := d.Command(ctx, nil, false, l)
		require.NoError(t, err)
		_, err = d.Command(ctx, nil, false)
		require.NoError(t, err)

		assert.Equal(t, 2, forwarded)
		assert.True(t, d.Listeners().Has(l))
	})

	t.Run("runner receives the per call snapshot", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("php"))
		r := &recordingRunner{}
		d.SetProcessRunner(r)
		persistent := testutil.NewRecordingListener()
		temporary := testutil.NewRecordingListener()
		d.Listen(persistent)

		_, err := d.Command(ctx, nil, false, temporary)
		require.NoError(t, err)

		assert.Equal(t, []listener.Listener{persistent, temporary}, r.listeners)
	})
}

func TestDriver_ListenAndUnlisten(t *testing.T) {
	t.Run("listen registers with the driver as target", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("php"))
		l := testutil.NewRecordingListener()

		var got []any
		d.On("received", func(args ...any) { got = args })

		d.Listen(l)
		l.Handle(execx.Stdout, "hello")

		assert.True(t, d.Listeners().Has(l))
		assert.Equal(t, []any{execx.Stdout, "hello"}, got)
	})

	t.Run("unlisten stops forwarding", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("php"))
		l := testutil.NewRecordingListener()

		var n int
		d.On("received", func(_ ...any) { n++ })

		d.Listen(l)
		require.NoError(t, d.Unlisten(l))
		l.Handle(execx.Stdout, "hello")

		assert.Zero(t, n)
		assert.False(t, d.Listeners().Has(l))
	})

	t.Run("unlisten unknown listener", func(t *testing.T) {
		d, _, _ := newFakeDriver(t, fakeprocess.New("php"))

		err := d.Unlisten(testutil.NewRecordingListener())

		assert.True(t, errdefs.IsInvalidArgumentError(err))
	})
}

func TestDriver_RealBinary(t *testing.T) {
	ctx := context.Background()

	t.Run("debug listener lines surface on the driver", func(t *testing.T) {
		bin := newBinary(t, "talker", `echo "out $1"; echo "err line" >&2`)
		logger := testutil.NewRecordingLogger()
		d, err := Load("talker", []string{bin}, WithLogger(logger))
		require.NoError(t, err)

		var lines []string
		d.On("debug", func(args ...any) { lines = append(lines, args[0].(string)) })

		out, err := d.Command(ctx, []string{"hello"}, false, listener.NewDebugListener())

		require.NoError(t, err)
		assert.Equal(t, "out hello\n", out)
		assert.Contains(t, lines, "[OUT] out hello")
		assert.Contains(t, lines, "[ERROR] err line")
		assert.Equal(t, 2, logger.Count("info"))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		bin := newBinary(t, "failer", `echo "nope" >&2; exit 2`)
		d, err := Load("failer", []string{bin})
		require.NoError(t, err)

		_, err = d.Command(ctx, nil, false)
		assert.True(t, errdefs.IsExecutionFailureError(err))

		out, err := d.Command(ctx, nil, true)
		require.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("configured timeout kills the process", func(t *testing.T) {
		sleep, err := exec.LookPath("sleep")
		if err != nil {
			t.Skip("sleep not found in PATH; skipping")
		}
		d, err := Load("sleep", []string{sleep}, WithConfigurationMap(map[string]any{"timeout": "100ms"}))
		require.NoError(t, err)

		_, err = d.Command(ctx, []string{"5"}, false)

		require.Error(t, err)
		assert.True(t, errdefs.IsExecutionFailureError(err))
		assert.ErrorIs(t, err, execx.ErrProcessTimedOut)
	})
}
