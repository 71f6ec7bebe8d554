//go:build linux

package command

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr makes the child receive SIGTERM when kinde2e dies, so
// an interrupted run does not leave kubectl or kind running.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
