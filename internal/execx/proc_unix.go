//go:build unix

package execx

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup starts c in a new process group and returns a func killing
// that whole group.
func setProcessGroup(c *exec.Cmd) func() error {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return func() error {
		err := syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
