package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/driver"
	"github.com/trly/binary-driver/internal/listener"
)

const (
	stdoutEvent = "debug.out"
	stderrEvent = "debug.err"
)

// RunCommand represents the run command.
type RunCommand struct {
	binaries     []string
	name         string
	driverConfig string
	quiet        bool
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand() *RunCommand {
	return &RunCommand{}
}

// GetCobraCommand returns the cobra command for running a binary.
func (c *RunCommand) GetCobraCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [flags] -- [args...]",
		Short: "Run a binary and print its output",
		Long: `Run the first binary found among the candidates with the given arguments.

Output lines are streamed to stderr with a channel prefix while the command
runs, and the captured stdout is printed once it completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if app == nil {
				return fmt.Errorf("application not initialized")
			}
			return c.run(cmd, app, args)
		},
	}

	runCmd.Flags().StringSliceVarP(&c.binaries, "binary", "b", nil, "Candidate binary name or path (repeatable)")
	runCmd.Flags().StringVar(&c.name, "name", "", "Driver name used in log records")
	runCmd.Flags().StringVar(&c.driverConfig, "driver-config", "", "File with extra driver configuration")
	runCmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Do not stream output lines")

	return runCmd
}

func (c *RunCommand) run(cmd *cobra.Command, app *App, args []string) error {
	candidates := c.binaries
	if len(candidates) == 0 {
		candidates = app.Config.Binaries
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no binary candidates: use --binary or set binaries in the configuration")
	}

	conf, err := c.configuration(app.Config)
	if err != nil {
		return err
	}

	name := c.name
	if name == "" {
		name = filepath.Base(candidates[0])
	}

	d, err := driver.Load(name, candidates,
		driver.WithLogger(app.Logger),
		driver.WithConfiguration(conf),
		driver.WithFinder(app.Finder),
	)
	if err != nil {
		return err
	}

	var listeners []listener.Listener
	if !c.quiet {
		debug := listener.NewDebugListener(
			listener.WithPrefixes(app.Config.OutPrefix, app.Config.ErrPrefix),
			listener.WithEvents(stdoutEvent, stderrEvent),
		)
		w := cmd.ErrOrStderr()
		d.On(stdoutEvent, lineWriter(w, color.New(color.FgGreen)))
		d.On(stderrEvent, lineWriter(w, color.New(color.FgRed)))
		listeners = append(listeners, debug)
	}

	out, err := d.Command(cmd.Context(), args, app.Config.BypassErrors, listeners...)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// configuration merges the driver configuration file over the settings.
func (c *RunCommand) configuration(cfg *config.Settings) (*config.Configuration, error) {
	conf := cfg.Configuration()
	if c.driverConfig == "" {
		return conf, nil
	}

	extra, err := config.LoadFile(c.driverConfig)
	if err != nil {
		return nil, err
	}
	extra.Range(func(key string, value any) bool {
		conf.Set(key, value)
		return true
	})
	return conf, nil
}

// lineWriter prints forwarded debug lines. Only the empty piece after a
// chunk's final newline is skipped; blank lines inside the output are kept.
func lineWriter(w io.Writer, c *color.Color) listener.Handler {
	return func(args ...any) {
		if len(args) == 0 {
			return
		}
		line, ok := args[0].(string)
		if !ok {
			return
		}
		if len(args) > 1 {
			if trailing, _ := args[1].(bool); trailing {
				return
			}
		}
		_, _ = c.Fprintln(w, line)
	}
}
