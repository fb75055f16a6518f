//go:build !windows

package command

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in its own process group so signals
// reach grandchildren forked by the shell.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(c *exec.Cmd, sig unix.Signal) error {
	if c.Process == nil {
		return nil
	}
	return unix.Kill(-c.Process.Pid, sig)
}

func terminate(c *exec.Cmd) error { return signalGroup(c, unix.SIGTERM) }

func kill(c *exec.Cmd) error { return signalGroup(c, unix.SIGKILL) }
