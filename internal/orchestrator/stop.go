package orchestrator

import (
	"fmt"
	"os"

	"github.com/pgbox-dev/pgbox/internal/process"
)

// StopResult reports a stop.
type StopResult struct {
	Name string
	PID  int
	// WasRunning is false when only a stale record was cleaned up.
	WasRunning bool
}

// Stop shuts the named instance down with the graceful-then-forced
// escalation and removes its record. Stopping an instance whose recorded
// pid is no longer alive succeeds and removes the stale record.
func (o *Orchestrator) Stop(name string) (*StopResult, error) {
	rec, err := o.store.Load(name)
	if err != nil {
		return nil, err
	}

	res := &StopResult{Name: name, PID: rec.PID}
	if o.ctl.Alive(rec.PID) {
		res.WasRunning = true
		o.log.Info("stopping instance", "instance", name, "pid", rec.PID)
		if err := process.StopGracefully(o.ctl, rec.PID, o.grace); err != nil {
			return nil, fmt.Errorf("failed to stop pid %d: %w", rec.PID, err)
		}
	} else {
		o.log.Warn("removing stale record", "instance", name, "pid", rec.PID)
	}

	if err := o.store.Remove(name); err != nil {
		return nil, err
	}
	return res, nil
}

// DropResult reports a drop.
type DropResult struct {
	Name       string
	WasRunning bool
}

// Drop destroys the named instance: stops the server if it is running, then
// deletes the data directory and the registry entry. The shared installation
// is never touched; it may serve other instances.
func (o *Orchestrator) Drop(name string) (*DropResult, error) {
	rec, err := o.store.Load(name)
	if err != nil {
		return nil, err
	}

	res := &DropResult{Name: name}
	if o.ctl.Alive(rec.PID) {
		res.WasRunning = true
		o.log.Info("stopping instance before drop", "instance", name, "pid", rec.PID)
		if err := process.StopGracefully(o.ctl, rec.PID, o.grace); err != nil {
			return nil, fmt.Errorf("failed to stop pid %d: %w", rec.PID, err)
		}
	}

	if rec.DataDir != "" {
		if err := os.RemoveAll(rec.DataDir); err != nil {
			return nil, fmt.Errorf("failed to remove data directory: %w", err)
		}
	}
	if err := o.store.RemoveDir(name); err != nil {
		return nil, err
	}

	o.log.Info("instance dropped", "instance", name)
	return res, nil
}
