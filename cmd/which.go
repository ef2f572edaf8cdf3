package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/trly/binary-driver/internal/driver"
	"github.com/trly/binary-driver/internal/errdefs"
)

// WhichCommand represents the which command.
type WhichCommand struct{}

// NewWhichCommand creates a new WhichCommand.
func NewWhichCommand() *WhichCommand {
	return &WhichCommand{}
}

// GetCobraCommand returns the cobra command for resolving binaries.
func (c *WhichCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which [name...]",
		Short: "Show where candidate binaries resolve",
		Long: `Show the executable each candidate resolves to. Without arguments the
binaries from the configuration are listed. Fails when none resolves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if app == nil {
				return fmt.Errorf("application not initialized")
			}

			candidates := args
			if len(candidates) == 0 {
				candidates = app.Config.Binaries
			}
			if len(candidates) == 0 {
				return fmt.Errorf("no binary candidates given")
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("Candidate", "Path", "Status")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
			tbl.WithWriter(cmd.OutOrStdout())

			found := 0
			for _, candidate := range candidates {
				path, ok := driver.Resolve(app.Finder, []string{candidate})
				if !ok {
					tbl.AddRow(candidate, "-", color.RedString("not found"))
					continue
				}
				found++
				tbl.AddRow(candidate, path, color.GreenString("ok"))
			}
			tbl.Print()

			if found == 0 {
				return errdefs.NewExecutableNotFoundError(candidates)
			}
			return nil
		},
	}
}
