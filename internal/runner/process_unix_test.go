//go:build unix

package runner

import "syscall"

// detachedProcAttr starts a process in a new session, outside the group
// that a timeout kills.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
