// Package execx provides a testable abstraction for running external binaries.
package execx

import (
	"regexp"
	"strings"
	"time"
)

// Channel identifies the output stream a chunk was read from.
type Channel string

// Output channels.
const (
	Stdout Channel = "out"
	Stderr Channel = "err"
)

// Command is a ready-to-run command description. It is built fresh for
// every invocation and never modified afterwards.
type Command struct {
	Path    string
	Args    []string
	Env     []string
	Timeout time.Duration // zero means no timeout
}

// Argv returns the path followed by the arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String returns the command line with shell-unsafe arguments quoted.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = quoteArg(a)
	}
	return strings.Join(quoted, " ")
}

var safeArg = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if safeArg.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
