//go:build windows

package cli

import "syscall"

// detachedProcAttr starts the daemon in a new process group, away from the
// console.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
