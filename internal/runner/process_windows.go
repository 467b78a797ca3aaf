//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// configureProcess starts the child in a new process group so console
// control events aimed at multiphase are not delivered to it.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// exitCode returns the child's exit status.
func exitCode(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}
