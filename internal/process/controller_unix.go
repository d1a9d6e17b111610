//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// unixController controls processes with POSIX signals.
type unixController struct{}

// New returns the Controller for the running platform.
func New() Controller {
	return unixController{}
}

// Alive probes the pid with signal 0. ESRCH means no such process; EPERM
// means the process exists but belongs to someone else, which still counts
// as alive.
func (unixController) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		// FindProcess never fails on unix, but be safe.
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

func (unixController) Terminate(pid int) error {
	return signal(pid, syscall.SIGTERM)
}

func (unixController) Kill(pid int) error {
	return signal(pid, syscall.SIGKILL)
}

func signal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		// The process dying between probe and signal is a success.
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}
