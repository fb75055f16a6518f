//go:build windows

package command

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}

func terminate(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}

func kill(c *exec.Cmd) error { return terminate(c) }
