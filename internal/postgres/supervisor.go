// Package postgres supervises one PostgreSQL server process per instance.
//
// The server is a black box: the supervisor talks to it only through the
// bundled command-line tools (initdb, pg_ctl, psql), exit codes, and the
// postmaster.pid marker file the server writes into its data directory. The
// started process is detached; the supervisor learns its pid from the
// marker file and holds no handle afterwards.
package postgres

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/logging"
)

// PidFileName is the marker file the server maintains in its data
// directory. Its first line is the server process id.
const PidFileName = "postmaster.pid"

// LogDirName is the directory, relative to the data directory, the server
// writes its logs into.
const LogDirName = "log"

// Supervisor drives setup, start and SQL bootstrap for a single instance.
type Supervisor struct {
	// VersionDir is the versioned installation directory holding bin/.
	VersionDir string
	// DataDir is the instance's exclusively owned data directory.
	DataDir string
	// Port the server will listen on.
	Port uint16
	// Superuser credentials the cluster is initialized with.
	Superuser string
	Password  string
	// Options are server configuration overrides applied at start.
	Options map[string]string
	// Runner executes the bundled tools. Defaults to os/exec.
	Runner Runner
	// Log receives diagnostics. Defaults to a no-op logger.
	Log *logging.Logger
}

func (s *Supervisor) runner() Runner {
	if s.Runner != nil {
		return s.Runner
	}
	return execRunner{}
}

func (s *Supervisor) log() *logging.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logging.NopLogger()
}

// binPath returns the path of a bundled tool.
func (s *Supervisor) binPath(tool string) string {
	if runtime.GOOS == "windows" {
		tool += ".exe"
	}
	return filepath.Join(s.VersionDir, "bin", tool)
}

// Setup initializes the data directory. Idempotent: a directory that
// already holds a cluster (structural check on PG_VERSION) is left alone.
func (s *Supervisor) Setup() error {
	if _, err := os.Stat(filepath.Join(s.DataDir, "PG_VERSION")); err == nil {
		s.log().Debug("data directory already initialized", "dir", s.DataDir)
		return nil
	}

	if err := os.MkdirAll(s.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// initdb reads the superuser password from a file, never argv.
	pwFile, err := os.CreateTemp("", "pgbox-pw-*")
	if err != nil {
		return fmt.Errorf("failed to create password file: %w", err)
	}
	defer os.Remove(pwFile.Name())
	if _, err := pwFile.WriteString(s.Password + "\n"); err != nil {
		pwFile.Close()
		return fmt.Errorf("failed to write password file: %w", err)
	}
	if err := pwFile.Close(); err != nil {
		return fmt.Errorf("failed to close password file: %w", err)
	}

	s.log().Info("initializing data directory", "dir", s.DataDir)
	out, err := s.runner().Run(s.binPath("initdb"),
		"-D", s.DataDir,
		"-U", s.Superuser,
		"--pwfile", pwFile.Name(),
		"--auth", "password",
		"-E", "UTF8",
	)
	if err != nil {
		return fmt.Errorf("initdb: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Start launches the server detached via pg_ctl and returns once pg_ctl
// reports it up. The server daemonizes itself; ownership of its lifetime
// ends here and later interaction goes through the pid file and signals.
func (s *Supervisor) Start() error {
	logDir := filepath.Join(s.DataDir, LogDirName)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	s.log().Info("starting server", "port", s.Port, "data_dir", s.DataDir)
	out, err := s.runner().Run(s.binPath("pg_ctl"),
		"-D", s.DataDir,
		"-l", filepath.Join(logDir, "startup.log"),
		"-o", s.serverOptions(),
		"-w",
		"start",
	)
	if err != nil {
		return fmt.Errorf("pg_ctl start: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// serverOptions renders the port and configuration overrides as the option
// string pg_ctl hands to the server. Keys are sorted so the invocation is
// deterministic.
func (s *Supervisor) serverOptions() string {
	parts := []string{fmt.Sprintf("-p %d", s.Port)}

	// The log directory must stay inside the data dir for the logs command.
	opts := map[string]string{
		"logging_collector": "on",
		"log_directory":     LogDirName,
	}
	for k, v := range s.Options {
		opts[k] = v
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("-c %s=%s", k, opts[k]))
	}
	return strings.Join(parts, " ")
}

// ReadPID reads the server's process id from the marker file. Absence or
// unparsable content is a startup error.
func (s *Supervisor) ReadPID() (int, error) {
	data, err := os.ReadFile(filepath.Join(s.DataDir, PidFileName))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pgberrors.ErrPidParse, err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || pid <= 0 {
		return 0, pgberrors.ErrPidParse
	}
	return pid, nil
}

// SuperuserURI is the bootstrap connection URI used for user and database
// creation.
func (s *Supervisor) SuperuserURI() string {
	return fmt.Sprintf("postgresql://%s:%s@localhost:%d/postgres", s.Superuser, s.Password, s.Port)
}

// EnsureUser creates a login role with superuser rights unless it already
// exists. The existence check runs inside the statement so the operation is
// idempotent end to end.
func (s *Supervisor) EnsureUser(username, password string) error {
	stmt := fmt.Sprintf(
		`DO $$ BEGIN IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = '%s') THEN CREATE USER "%s" WITH SUPERUSER PASSWORD '%s'; END IF; END $$;`,
		username, username, strings.ReplaceAll(password, "'", "''"),
	)
	out, err := s.runner().Run(s.binPath("psql"), s.SuperuserURI(), "-c", stmt)
	if err != nil {
		return fmt.Errorf("create user %q: %w: %s", username, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// EnsureDatabase creates a database, treating "already exists" as success.
func (s *Supervisor) EnsureDatabase(database string) error {
	stmt := fmt.Sprintf(`CREATE DATABASE "%s";`, database)
	out, err := s.runner().Run(s.binPath("psql"), s.SuperuserURI(), "-c", stmt)
	if err != nil {
		if strings.Contains(string(out), "already exists") {
			return nil
		}
		return fmt.Errorf("create database %q: %w: %s", database, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// GrantDatabase grants all privileges on a database to a user.
func (s *Supervisor) GrantDatabase(database, username string) error {
	stmt := fmt.Sprintf(`GRANT ALL PRIVILEGES ON DATABASE "%s" TO "%s";`, database, username)
	out, err := s.runner().Run(s.binPath("psql"), s.SuperuserURI(), "-c", stmt)
	if err != nil {
		return fmt.Errorf("grant on %q to %q: %w: %s", database, username, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PsqlPath locates the bundled psql under an installation root, scanning
// the version subdirectories.
func PsqlPath(installRoot string) (string, error) {
	tool := "psql"
	if runtime.GOOS == "windows" {
		tool += ".exe"
	}

	entries, err := os.ReadDir(installRoot)
	if err == nil {
		for _, entry := range entries {
			candidate := filepath.Join(installRoot, entry.Name(), "bin", tool)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	// Fallback for roots that are themselves a version directory.
	direct := filepath.Join(installRoot, "bin", tool)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	return "", fmt.Errorf("psql not found under %s", installRoot)
}
