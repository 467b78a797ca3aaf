//go:build windows

package runner

import "syscall"

// detachedProcAttr starts a process in its own group so killing the
// child leaves it running.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
