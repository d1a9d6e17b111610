package orchestrator

import (
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/install"
	"github.com/pgbox-dev/pgbox/internal/ports"
	"github.com/pgbox-dev/pgbox/internal/postgres"
	"github.com/pgbox-dev/pgbox/internal/registry"
)

// StartOptions carries the per-instance settings for a start. Zero values
// fall back to the configured defaults.
type StartOptions struct {
	Name string
	// Port to listen on. When PortExplicit is set the port is used as given
	// and a conflict surfaces at server bind time; otherwise it is the
	// starting point of the availability scan.
	Port         uint16
	PortExplicit bool
	// Version of the server to install and run.
	Version string
	// DataDir overrides the default data directory inside the instance
	// directory. A leading ~/ is expanded.
	DataDir  string
	Username string
	Password string
	Database string
	// ServerOptions are configuration overrides applied on top of the tuned
	// defaults.
	ServerOptions map[string]string
}

// StartResult reports a successful start.
type StartResult struct {
	Name   string
	Record *registry.Record
	// Warnings lists the non-fatal failures of optional steps: extension
	// auto-install and user/database bootstrap.
	Warnings []string
}

// Start brings the named instance up: ensures the versioned installation,
// initializes the data directory if needed, launches the server, and
// persists the record. The record is written last, only after the server
// has published its pid, so a failed start never leaves a record behind.
//
// Starting an instance whose record points at a live process fails with
// ErrInstanceAlreadyRunning; a stale record is discarded and the start
// proceeds.
func (o *Orchestrator) Start(opts StartOptions) (*StartResult, error) {
	if err := registry.ValidateName(opts.Name); err != nil {
		return nil, pgberrors.NewValidationError(err.Error())
	}
	log := o.log.WithInstance(opts.Name)

	version := opts.Version
	if version == "" {
		version = o.cfg.Server.Version
	}
	sv, err := semver.NewVersion(version)
	if err != nil {
		return nil, pgberrors.NewValidationError(fmt.Sprintf("invalid version %q: %v", version, err))
	}

	if rec, err := o.store.Load(opts.Name); err == nil {
		if o.ctl.Alive(rec.PID) {
			return nil, pgberrors.NewInstanceError("instance is already running", pgberrors.ErrInstanceAlreadyRunning).
				WithInstance(opts.Name).WithPID(rec.PID)
		}
		log.Warn("discarding stale record", "pid", rec.PID)
		if err := o.store.Remove(opts.Name); err != nil {
			return nil, err
		}
	} else if !pgberrors.Is(err, pgberrors.ErrInstanceNotFound) {
		return nil, err
	}

	startPort := opts.Port
	if startPort == 0 {
		startPort = o.cfg.Server.Port
	}
	port, err := ports.Allocate(startPort, opts.PortExplicit)
	if err != nil {
		return nil, err
	}

	tag, err := o.platformTag()
	if err != nil {
		return nil, err
	}

	installer := &install.Installer{
		InstallRoot: o.installRoot,
		Version:     version,
		PlatformTag: tag,
		Source:      o.bundleSource(version, tag),
		Log:         log,
	}
	versionDir, err := installer.EnsureInstalled()
	if err != nil {
		return nil, err
	}

	var warnings []string
	major := fmt.Sprintf("%d", sv.Major())
	if err := o.installExtensionFiles(o.vectorSpec(), major, tag); err != nil {
		log.Warn("vector auto-install failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("pgvector not installed: %v", err))
	}

	dataDir := config.ExpandPath(opts.DataDir)
	if dataDir == "" {
		dataDir = filepath.Join(o.store.Dir(opts.Name), "data")
	}

	username := opts.Username
	if username == "" {
		username = o.cfg.Server.Username
	}
	password := opts.Password
	if password == "" {
		password = o.cfg.Server.Password
	}
	database := opts.Database
	if database == "" {
		database = o.cfg.Server.Database
	}

	serverOpts := config.ServerOptionDefaults()
	for k, v := range opts.ServerOptions {
		serverOpts[k] = v
	}

	sup := &postgres.Supervisor{
		VersionDir: versionDir,
		DataDir:    dataDir,
		Port:       port,
		Superuser:  o.cfg.Server.Username,
		Password:   password,
		Options:    serverOpts,
		Runner:     o.runner,
		Log:        log,
	}

	if err := sup.Setup(); err != nil {
		return nil, err
	}
	if err := sup.Start(); err != nil {
		return nil, err
	}

	pid, err := sup.ReadPID()
	if err != nil {
		return nil, err
	}

	// The server is up. Everything from here on is bootstrap convenience
	// and must not fail the start.
	if username != o.cfg.Server.Username {
		if err := sup.EnsureUser(username, password); err != nil {
			log.Warn("user bootstrap failed", "user", username, "error", err)
			warnings = append(warnings, fmt.Sprintf("user %q not created: %v", username, err))
		}
	}
	if database != "postgres" {
		if err := sup.EnsureDatabase(database); err != nil {
			log.Warn("database bootstrap failed", "database", database, "error", err)
			warnings = append(warnings, fmt.Sprintf("database %q not created: %v", database, err))
		} else if username != o.cfg.Server.Username {
			if err := sup.GrantDatabase(database, username); err != nil {
				log.Warn("grant failed", "database", database, "user", username, "error", err)
				warnings = append(warnings, fmt.Sprintf("grant on %q failed: %v", database, err))
			}
		}
	}

	rec := &registry.Record{
		PID:             pid,
		Port:            port,
		DataDir:         dataDir,
		InstallationDir: versionDir,
		Username:        username,
		Password:        password,
		Database:        database,
		Version:         version,
	}
	if err := o.store.Save(opts.Name, rec); err != nil {
		return nil, err
	}

	log.Info("instance started", "pid", pid, "port", port)
	return &StartResult{Name: opts.Name, Record: rec, Warnings: warnings}, nil
}
