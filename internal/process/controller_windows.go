//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// windowsController controls processes with the tasklist/taskkill tools,
// since Windows has no signal-0 probe.
type windowsController struct{}

// New returns the Controller for the running platform.
func New() Controller {
	return windowsController{}
}

// Alive checks the tasklist output for the pid. Any failure to run the
// query is reported as not-alive rather than an error.
func (windowsController) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid)).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}

func (windowsController) Terminate(pid int) error {
	if err := exec.Command("taskkill", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("taskkill %d: %w", pid, err)
	}
	return nil
}

func (windowsController) Kill(pid int) error {
	if err := exec.Command("taskkill", "/F", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("taskkill /F %d: %w", pid, err)
	}
	return nil
}
