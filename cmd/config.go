package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCommand represents the config command.
type ConfigCommand struct{}

// NewConfigCommand creates a new ConfigCommand.
func NewConfigCommand() *ConfigCommand {
	return &ConfigCommand{}
}

// GetCobraCommand returns the cobra command for configuration operations.
func (c *ConfigCommand) GetCobraCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bindriver configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(NewConfigShowCommand().GetCobraCommand())
	return configCmd
}

// ConfigShowCommand represents the config show command.
type ConfigShowCommand struct {
	output string
}

// NewConfigShowCommand creates a new ConfigShowCommand.
func NewConfigShowCommand() *ConfigShowCommand {
	return &ConfigShowCommand{}
}

// GetCobraCommand returns the cobra command for config show operations.
func (c *ConfigShowCommand) GetCobraCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  "Display the current configuration including defaults and overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := getApp(cmd)
			if app == nil {
				return fmt.Errorf("application not initialized")
			}
			return PrintOutput(cmd.OutOrStdout(), c.output, app.Config)
		},
	}

	showCmd.Flags().StringVarP(&c.output, "output", "o", "yaml", "Output format (yaml, json)")
	return showCmd
}
