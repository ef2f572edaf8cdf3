// Package cmd provides the command line interface for bindriver
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/log"
)

type contextKey string

const appContextKey contextKey = "app"

// App holds the application dependencies for command line interface.
type App struct {
	Logger         log.Logger
	Config         *config.Settings
	ConfigProvider config.Provider
	Finder         execx.Finder
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(logger log.Logger, configProv config.Provider) *App {
	return &App{
		Logger:         logger,
		Config:         configProv.GetConfig(),
		ConfigProvider: configProv,
		Finder:         execx.NewPathFinder(),
	}
}

// appFromContext returns the App stored in ctx, or nil.
func appFromContext(ctx context.Context) *App {
	if ctx == nil {
		return nil
	}
	app, _ := ctx.Value(appContextKey).(*App)
	return app
}

// getApp retrieves the App from the command context.
func getApp(cmd *cobra.Command) *App {
	return appFromContext(cmd.Context())
}
