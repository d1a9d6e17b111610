package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgbox-dev/pgbox/internal/postgres"
)

// Status is the externally visible state of one instance, shaped for both
// the text and JSON renderings of info and list.
type Status struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	// PID and URI are set only while the process is alive; a stale record's
	// pid is meaningless and its URI is not connectable.
	PID      int    `json:"pid,omitempty"`
	Port     uint16 `json:"port,omitempty"`
	Version  string `json:"version,omitempty"`
	Username string `json:"username,omitempty"`
	Database string `json:"database,omitempty"`
	DataDir  string `json:"data_dir,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Info reports the named instance's status, probing the recorded pid for
// liveness. Reads are non-destructive: a stale record is reported as
// not-running with its last known configuration and stays on disk.
// Returns ErrInstanceNotFound when no record exists.
func (o *Orchestrator) Info(name string) (*Status, error) {
	rec, err := o.store.Load(name)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Name:     name,
		Running:  o.ctl.Alive(rec.PID),
		Port:     rec.Port,
		Version:  rec.Version,
		Username: rec.Username,
		Database: rec.Database,
		DataDir:  rec.DataDir,
	}
	if st.Running {
		st.PID = rec.PID
		st.URI = rec.URI()
	}
	return st, nil
}

// List reports the status of every instance with a record, sorted by name.
// Unreadable records are skipped with a warning rather than failing the
// whole listing.
func (o *Orchestrator) List() ([]*Status, error) {
	names, err := o.store.List()
	if err != nil {
		return nil, err
	}

	statuses := make([]*Status, 0, len(names))
	for _, name := range names {
		st, err := o.Info(name)
		if err != nil {
			o.log.Warn("skipping unreadable record", "instance", name, "error", err)
			continue
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// PsqlSession is what the CLI needs to hand the terminal to psql.
type PsqlSession struct {
	// Path of the bundled psql executable.
	Path string
	// URI the session connects to.
	URI string
}

// Psql prepares an interactive SQL shell session against a running
// instance. A stale record is removed and reported as not-running.
func (o *Orchestrator) Psql(name string) (*PsqlSession, error) {
	rec, err := o.loadForMutation(name)
	if err != nil {
		return nil, err
	}

	path, err := postgres.PsqlPath(rec.InstallationDir)
	if err != nil {
		return nil, err
	}
	return &PsqlSession{Path: path, URI: rec.URI()}, nil
}

// LogFile returns the path of the instance's most recently modified server
// log file.
func (o *Orchestrator) LogFile(name string) (string, error) {
	rec, err := o.store.Load(name)
	if err != nil {
		return "", err
	}

	logDir := filepath.Join(rec.DataDir, postgres.LogDirName)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return "", fmt.Errorf("no logs for instance %q: %w", name, err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = filepath.Join(logDir, entry.Name())
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no log files for instance %q in %s", name, logDir)
	}
	return newest, nil
}
