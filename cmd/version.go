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
	"io"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// Build information set by goreleaser.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const repositorySlug = "trly/binary-driver"

// releaseDetector finds the latest published release.
type releaseDetector func(ctx context.Context) (*selfupdate.Release, bool, error)

func detectLatest(ctx context.Context) (*selfupdate.Release, bool, error) {
	return selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repositorySlug))
}

// VersionCommand represents the version command.
type VersionCommand struct {
	detect releaseDetector
}

// NewVersionCommand creates a new VersionCommand.
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{detect: detectLatest}
}

// GetCobraCommand returns the cobra command for displaying version information.
func (c *VersionCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for bindriver.`,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "bindriver version %s\n", Version)
			fmt.Fprintf(w, "  commit: %s\n", Commit)
			fmt.Fprintf(w, "  built: %s\n", Date)
			fmt.Fprintf(w, "  go: %s\n", runtime.Version())

			c.checkForUpdates(cmd.Context(), w)
		},
	}
}

// checkForUpdates prints a message when a newer release exists.
func (c *VersionCommand) checkForUpdates(ctx context.Context, w io.Writer) {
	if Version == "dev" {
		fmt.Fprintln(w, "\nSkipping update check for development build.")
		return
	}

	fmt.Fprintln(w, "\nChecking for updates...")

	latest, found, err := c.detect(ctx)
	if err != nil {
		fmt.Fprintf(w, "Failed to check for updates: %v\n", err)
		return
	}
	if !found {
		fmt.Fprintln(w, "No release found")
		return
	}
	if latest.LessOrEqual(Version) {
		fmt.Fprintln(w, "You are running the latest version.")
		return
	}

	fmt.Fprintf(w, "Update available! New version: %s\n", latest.Version())
	fmt.Fprintln(w, "Run 'bindriver update' to update to the latest version.")
}
