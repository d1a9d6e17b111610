package orchestrator

import (
	"time"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/install"
	"github.com/pgbox-dev/pgbox/internal/logging"
	"github.com/pgbox-dev/pgbox/internal/platform"
	"github.com/pgbox-dev/pgbox/internal/postgres"
	"github.com/pgbox-dev/pgbox/internal/process"
	"github.com/pgbox-dev/pgbox/internal/registry"
)

// Orchestrator executes instance lifecycle operations against one state
// directory. Construct with New; the zero value is not usable.
type Orchestrator struct {
	cfg         *config.Config
	store       *registry.Store
	ctl         process.Controller
	runner      postgres.Runner
	log         *logging.Logger
	grace       time.Duration
	installRoot string

	bundle      install.BundleSource
	fetch       func(url, dest string) error
	platformTag func() (string, error)
}

// Option customizes an Orchestrator, mainly for tests.
type Option func(*Orchestrator)

// WithController substitutes the process controller.
func WithController(ctl process.Controller) Option {
	return func(o *Orchestrator) { o.ctl = ctl }
}

// WithRunner substitutes the command runner handed to supervisors.
func WithRunner(r postgres.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithBundleSource substitutes the server bundle source.
func WithBundleSource(src install.BundleSource) Option {
	return func(o *Orchestrator) { o.bundle = src }
}

// WithFetch substitutes the extension download function.
func WithFetch(fetch func(url, dest string) error) Option {
	return func(o *Orchestrator) { o.fetch = fetch }
}

// WithGracePeriod overrides the stop escalation grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Orchestrator) { o.grace = d }
}

// WithPlatformTag pins the platform tag instead of detecting the host.
func WithPlatformTag(tag string) Option {
	return func(o *Orchestrator) {
		o.platformTag = func() (string, error) { return tag, nil }
	}
}

// New builds an Orchestrator from the effective configuration.
func New(cfg *config.Config, log *logging.Logger, opts ...Option) (*Orchestrator, error) {
	instancesDir, err := cfg.InstancesDir()
	if err != nil {
		return nil, err
	}
	installRoot, err := cfg.InstallationDir()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:         cfg,
		store:       registry.NewStore(instancesDir),
		ctl:         process.New(),
		runner:      postgres.NewRunner(),
		log:         log,
		grace:       process.DefaultGracePeriod,
		installRoot: installRoot,
		platformTag: platform.Current,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logging.NopLogger()
	}
	return o, nil
}

// bundleSource picks where the server bundle for a version comes from:
// bytes linked into this binary when present, the release repository
// otherwise.
func (o *Orchestrator) bundleSource(version, tag string) install.BundleSource {
	if o.bundle != nil {
		return o.bundle
	}
	if len(install.BundledData) > 0 {
		return &install.EmbeddedSource{Data: install.BundledData}
	}
	return install.NewRemoteSource(install.ServerBundleURL(o.cfg.Server.BinaryRepo, version, tag))
}

// loadForMutation loads the record for a mutating operation that requires a
// live instance. A stale record is deleted before the not-running error is
// returned, so the next start does not trip over it.
func (o *Orchestrator) loadForMutation(name string) (*registry.Record, error) {
	rec, err := o.store.Load(name)
	if err != nil {
		return nil, err
	}
	if !o.ctl.Alive(rec.PID) {
		o.log.Warn("removing stale record", "instance", name, "pid", rec.PID)
		if err := o.store.Remove(name); err != nil {
			return nil, err
		}
		return nil, pgberrors.NewInstanceError("instance is not running", pgberrors.ErrInstanceNotRunning).
			WithInstance(name).WithPID(rec.PID)
	}
	return rec, nil
}
