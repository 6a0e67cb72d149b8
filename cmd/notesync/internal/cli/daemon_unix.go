//go:build unix

package cli

import "syscall"

// detachedProcAttr starts the daemon in its own session, away from the
// terminal.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
