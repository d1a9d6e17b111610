package process

import (
	"os"
	"testing"
	"time"
)

// fakeController records the calls made against it.
type fakeController struct {
	alive      map[int]bool
	dieOnTerm  bool
	terminated []int
	killed     []int
}

func (f *fakeController) Alive(pid int) bool { return f.alive[pid] }

func (f *fakeController) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	if f.dieOnTerm {
		f.alive[pid] = false
	}
	return nil
}

func (f *fakeController) Kill(pid int) error {
	f.killed = append(f.killed, pid)
	f.alive[pid] = false
	return nil
}

func withInstantSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

func TestStopGracefully_GracefulPath(t *testing.T) {
	withInstantSleep(t)
	ctl := &fakeController{alive: map[int]bool{42: true}, dieOnTerm: true}

	if err := StopGracefully(ctl, 42, DefaultGracePeriod); err != nil {
		t.Fatalf("StopGracefully failed: %v", err)
	}
	if len(ctl.terminated) != 1 {
		t.Errorf("expected one graceful terminate, got %d", len(ctl.terminated))
	}
	if len(ctl.killed) != 0 {
		t.Errorf("process that died gracefully must not be force-killed, got %d kills", len(ctl.killed))
	}
}

func TestStopGracefully_EscalatesToKill(t *testing.T) {
	withInstantSleep(t)
	ctl := &fakeController{alive: map[int]bool{42: true}}

	if err := StopGracefully(ctl, 42, DefaultGracePeriod); err != nil {
		t.Fatalf("StopGracefully failed: %v", err)
	}
	if len(ctl.terminated) != 1 || len(ctl.killed) != 1 {
		t.Errorf("expected terminate then kill, got terms=%d kills=%d", len(ctl.terminated), len(ctl.killed))
	}
}

func TestStopGracefully_AlreadyDead(t *testing.T) {
	withInstantSleep(t)
	ctl := &fakeController{alive: map[int]bool{}}

	if err := StopGracefully(ctl, 42, DefaultGracePeriod); err != nil {
		t.Fatalf("StopGracefully on dead pid should succeed: %v", err)
	}
	if len(ctl.terminated) != 0 || len(ctl.killed) != 0 {
		t.Error("dead process should receive no signals")
	}
}

func TestAlive_OwnProcess(t *testing.T) {
	ctl := New()
	if !ctl.Alive(os.Getpid()) {
		t.Error("own pid should probe as alive")
	}
}

func TestAlive_NonExistentPid(t *testing.T) {
	ctl := New()
	// PID max on Linux defaults to 4194304; this is comfortably beyond it
	// and must return false, never panic or error.
	if ctl.Alive(99999999) {
		t.Error("absurd pid should not be alive")
	}
	if ctl.Alive(0) || ctl.Alive(-1) {
		t.Error("non-positive pids are never alive")
	}
}
