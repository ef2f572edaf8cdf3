//go:build !unix

package execx

import "os/exec"

// setProcessGroup returns a func killing the direct child only; process
// groups are a unix concept.
func setProcessGroup(c *exec.Cmd) func() error {
	return func() error {
		return c.Process.Kill()
	}
}
