// Package cmd provides the command line interface for bindriver
/*
Copyright © 2025 Travis Lyons travis.lyons@gmail.com

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/log"
)

// RootCommand represents the root command for bindriver CLI.
type RootCommand struct {
	provider       config.Provider
	configFilePath string
	verbose        bool
	timeout        string
	bypassErrors   bool
}

// NewRootCommand creates a RootCommand reading settings through provider.
// A nil provider uses the package level one.
func NewRootCommand(provider config.Provider) *RootCommand {
	if provider == nil {
		provider = config.DefaultProvider()
	}
	return &RootCommand{provider: provider}
}

// GetCobraCommand returns the cobra root command for bindriver CLI.
func (c *RootCommand) GetCobraCommand() *cobra.Command {
	if c.provider == nil {
		c.provider = config.DefaultProvider()
	}

	rootCmd := &cobra.Command{
		Use:   "bindriver",
		Short: "bindriver runs external binaries through a driver.",
		Long: `bindriver runs external binaries through a driver.
It locates a binary among candidates, applies the configured timeout and
streams prefixed output lines while the command runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app := getApp(cmd)
			if app == nil {
				var err error
				if app, err = c.initApp(cmd); err != nil {
					return err
				}
			}
			return c.applyFlags(cmd, app)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&c.configFilePath, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&c.timeout, "timeout", "", "Process timeout, as a duration (30s) or seconds")
	rootCmd.PersistentFlags().BoolVar(&c.bypassErrors, "bypass-errors", false, "Return empty output instead of failing on unsuccessful commands")

	rootCmd.AddCommand(
		NewRunCommand().GetCobraCommand(),
		NewWhichCommand().GetCobraCommand(),
		NewConfigCommand().GetCobraCommand(),
		NewVersionCommand().GetCobraCommand(),
		NewUpdateCommand().GetCobraCommand(),
	)

	return rootCmd
}

func (c *RootCommand) initApp(cmd *cobra.Command) (*App, error) {
	if c.configFilePath != "" {
		c.provider.SetConfigFilePath(c.configFilePath)
	}

	cfg, err := c.provider.InitConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	verbose := c.verbose || cfg.Verbose
	log.Init(verbose)
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s using config: %s\n\n", cmd.Root().Use, viper.GetViper().ConfigFileUsed())
	}

	app := NewApp(log.GetLogger(), c.provider)
	cmd.SetContext(context.WithValue(cmd.Context(), appContextKey, app))
	return app, nil
}

// applyFlags lets explicit flags win over the loaded settings.
func (c *RootCommand) applyFlags(cmd *cobra.Command, app *App) error {
	cfg := app.Config
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = c.verbose
	}
	if flags.Changed("bypass-errors") {
		cfg.BypassErrors = c.bypassErrors
	}
	if flags.Changed("timeout") {
		d, err := config.ParseTimeout(c.timeout)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.Timeout = d
		delete(cfg.Driver, config.TimeoutKey)
	}
	return nil
}
