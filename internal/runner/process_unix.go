//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the child in its own process group so that a
// timeout or cancellation kills everything it spawned, not just the leader.
// Otherwise a grandchild holding the stdout pipe would keep the read open.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// A negative pid signals the whole group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

// exitCode returns the child's exit status, or the negated signal number
// when it was terminated by a signal.
func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -int(status.Signal())
	}
	return exitErr.ExitCode()
}
