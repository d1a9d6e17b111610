package process

import (
	"time"
)

// DefaultGracePeriod is how long a graceful termination is given to take
// effect before escalating to a forced kill.
const DefaultGracePeriod = 2 * time.Second

// Controller manages processes identified only by pid.
//
// Implementations must treat a dead or never-existing pid as a normal
// condition: Alive returns false, it never errors.
type Controller interface {
	// Alive reports whether pid currently identifies a running process.
	Alive(pid int) bool

	// Terminate asks the process to shut down gracefully (SIGTERM-equivalent),
	// giving the server a chance to checkpoint and release its resources.
	Terminate(pid int) error

	// Kill forcefully ends the process (SIGKILL-equivalent). Last resort.
	Kill(pid int) error
}

// sleep is replaceable in tests so the grace period doesn't slow them down.
var sleep = time.Sleep

// StopGracefully performs the mandatory two-phase shutdown escalation:
// graceful terminate, wait out the grace period, re-probe, and only then
// force-kill if the process is still alive. Skipping straight to Kill would
// bypass the server's own shutdown and checkpoint logic.
//
// Stopping a pid that is already dead succeeds immediately.
func StopGracefully(ctl Controller, pid int, grace time.Duration) error {
	if !ctl.Alive(pid) {
		return nil
	}

	if err := ctl.Terminate(pid); err != nil {
		return err
	}

	sleep(grace)

	if ctl.Alive(pid) {
		return ctl.Kill(pid)
	}
	return nil
}
