package orchestrator

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/pgbox-dev/pgbox/internal/install"
)

// vectorSpec builds the pgvector catalog entry from configuration.
func (o *Orchestrator) vectorSpec() install.ExtensionSpec {
	return install.ExtensionSpec{
		Name:        "vector",
		Description: "Open-source vector similarity search for Postgres",
		Repo:        o.cfg.Extensions.Vector.Repo,
		Tag:         o.cfg.Extensions.Vector.Tag,
	}
}

// Extensions returns the catalog of installable extensions.
func (o *Orchestrator) Extensions() []install.ExtensionSpec {
	return install.Catalog(o.vectorSpec())
}

// InstallExtension installs the named extension into the installation of a
// running instance. The instance must be running so the caller can follow
// up with CREATE EXTENSION; a stale record is removed and reported as
// not-running.
func (o *Orchestrator) InstallExtension(name, extension string) (install.ExtensionSpec, error) {
	rec, err := o.loadForMutation(name)
	if err != nil {
		return install.ExtensionSpec{}, err
	}

	ext, err := install.FindExtension(o.Extensions(), extension)
	if err != nil {
		return install.ExtensionSpec{}, err
	}

	sv, err := semver.NewVersion(rec.Version)
	if err != nil {
		return install.ExtensionSpec{}, fmt.Errorf("record has invalid version %q: %w", rec.Version, err)
	}

	tag, err := o.platformTag()
	if err != nil {
		return install.ExtensionSpec{}, err
	}

	major := fmt.Sprintf("%d", sv.Major())
	if err := o.installExtensionFiles(ext, major, tag); err != nil {
		return install.ExtensionSpec{}, err
	}
	return ext, nil
}

// installExtensionFiles runs the file-level extension install against the
// shared installation root.
func (o *Orchestrator) installExtensionFiles(ext install.ExtensionSpec, pgMajor, platformTag string) error {
	ei := &install.ExtensionInstaller{
		InstallRoot: o.installRoot,
		PlatformTag: platformTag,
		Fetch:       o.fetch,
		Log:         o.log,
	}
	return ei.Install(ext, pgMajor)
}
