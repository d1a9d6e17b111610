// Package internal contains integration tests that drive a full instance
// lifecycle through the orchestrator's public API, with the process
// controller and external tools faked out.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/logging"
	"github.com/pgbox-dev/pgbox/internal/orchestrator"
	"github.com/pgbox-dev/pgbox/internal/platform"
)

// memController is a process controller over an in-memory pid set.
type memController struct {
	alive map[int]bool
}

func (c *memController) Alive(pid int) bool { return c.alive[pid] }

func (c *memController) Terminate(pid int) error {
	delete(c.alive, pid)
	return nil
}

func (c *memController) Kill(pid int) error {
	delete(c.alive, pid)
	return nil
}

// toolRunner fakes the PostgreSQL command-line tools. pg_ctl "starts" the
// server by publishing the pid file and registering the pid as alive.
type toolRunner struct {
	ctl     *memController
	nextPID int
}

func (r *toolRunner) Run(name string, args ...string) ([]byte, error) {
	if filepath.Base(name) != "pg_ctl" && filepath.Base(name) != "pg_ctl.exe" {
		return nil, nil
	}
	dataDir := ""
	for i, arg := range args {
		if arg == "-D" && i+1 < len(args) {
			dataDir = args[i+1]
		}
	}
	r.nextPID++
	pid := 9000 + r.nextPID
	r.ctl.alive[pid] = true
	content := fmt.Sprintf("%d\n%s\n", pid, dataDir)
	return nil, os.WriteFile(filepath.Join(dataDir, "postmaster.pid"), []byte(content), 0644)
}

func TestInstanceLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	ctl := &memController{alive: map[int]bool{}}

	orc, err := orchestrator.New(cfg, logging.NopLogger(),
		orchestrator.WithController(ctl),
		orchestrator.WithRunner(&toolRunner{ctl: ctl}),
		orchestrator.WithPlatformTag("x86_64-unknown-linux-gnu"),
		orchestrator.WithGracePeriod(time.Millisecond),
		orchestrator.WithFetch(func(url, dest string) error {
			return fmt.Errorf("no network in tests")
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Lay down a structural installation so no bundle is fetched.
	versionDir := filepath.Join(cfg.Paths.BaseDir, "installation", cfg.Server.Version)
	if err := os.MkdirAll(filepath.Join(versionDir, "share", "extension"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(versionDir, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	server := filepath.Join(versionDir, "bin", platform.ServerBinary(runtime.GOOS))
	if err := os.WriteFile(server, []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	control := filepath.Join(versionDir, "share", "extension", "vector.control")
	if err := os.WriteFile(control, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// Start two instances on distinct ports.
	first, err := orc.Start(orchestrator.StartOptions{Name: "default", Port: 5711, PortExplicit: true})
	if err != nil {
		t.Fatalf("start default: %v", err)
	}
	second, err := orc.Start(orchestrator.StartOptions{Name: "analytics", Port: 5712, PortExplicit: true})
	if err != nil {
		t.Fatalf("start analytics: %v", err)
	}
	if first.Record.PID == second.Record.PID {
		t.Fatalf("instances share pid %d", first.Record.PID)
	}

	// Starting again while running must be rejected.
	if _, err := orc.Start(orchestrator.StartOptions{Name: "default"}); !pgberrors.Is(err, pgberrors.ErrInstanceAlreadyRunning) {
		t.Fatalf("expected ErrInstanceAlreadyRunning, got %v", err)
	}

	// Both show up in the listing as running.
	statuses, err := orc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d instances, want 2", len(statuses))
	}
	for _, st := range statuses {
		if !st.Running {
			t.Errorf("instance %s should be running", st.Name)
		}
		if !strings.HasPrefix(st.URI, "postgresql://") {
			t.Errorf("instance %s has no URI", st.Name)
		}
	}

	// Stop one; the other keeps running.
	if _, err := orc.Stop("default"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, err := orc.Info("default"); !pgberrors.Is(err, pgberrors.ErrInstanceNotFound) {
		t.Errorf("stopped instance should have no record, got %v", err)
	}
	st, err := orc.Info("analytics")
	if err != nil || !st.Running {
		t.Fatalf("analytics should still be running: %v %+v", err, st)
	}

	// Drop the survivor; its data goes, the installation stays.
	dataDir := st.DataDir
	if _, err := orc.Drop("analytics"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
		t.Error("dropped data directory should be gone")
	}
	if _, err := os.Stat(server); err != nil {
		t.Errorf("installation must survive drops: %v", err)
	}

	statuses, err = orc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("expected empty listing, got %d", len(statuses))
	}
}
