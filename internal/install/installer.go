package install

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/logging"
	"github.com/pgbox-dev/pgbox/internal/platform"
)

// Installer materializes one versioned server installation under the shared
// installation root.
type Installer struct {
	// InstallRoot is the shared installation directory; version directories
	// live directly beneath it.
	InstallRoot string
	// Version is the server version being installed.
	Version string
	// PlatformTag is the resolved bundle platform tag.
	PlatformTag string
	// Source supplies the compressed bundle.
	Source BundleSource
	// Log receives diagnostics. Defaults to a no-op logger.
	Log *logging.Logger
}

// VersionDir returns the destination directory for this version.
func (in *Installer) VersionDir() string {
	return filepath.Join(in.InstallRoot, in.Version)
}

// ServerBinary returns the expected path of the server executable.
func (in *Installer) ServerBinary() string {
	return filepath.Join(in.VersionDir(), "bin", platform.ServerBinary(runtime.GOOS))
}

// Installed reports whether a runnable installation already exists.
// Presence is structural: the server executable at its known relative path,
// not a marker file.
func (in *Installer) Installed() bool {
	_, err := os.Stat(in.ServerBinary())
	return err == nil
}

// EnsureInstalled extracts the bundle unless a valid installation already
// exists, verifies the result, and fixes executable permissions. It returns
// the version directory.
//
// The idempotency check runs before any decompression or network work. A
// truncated archive leaves the destination partially populated, which is
// acceptable: the executable-presence check re-triggers extraction on the
// next run and every entry write is independently idempotent.
func (in *Installer) EnsureInstalled() (string, error) {
	log := in.Log
	if log == nil {
		log = logging.NopLogger()
	}

	versionDir := in.VersionDir()
	if in.Installed() {
		log.Debug("installation already present", "dir", versionDir)
		return versionDir, nil
	}

	log.Info("extracting server bundle", "version", in.Version, "source", in.Source.Description())

	r, err := in.Source.Open()
	if err != nil {
		if pgberrors.Is(err, pgberrors.ErrBundleEmpty) {
			return "", pgberrors.NewInstallError("no bundle available", err).WithRetryable(false)
		}
		return "", pgberrors.NewInstallError("failed to open bundle", err).
			WithVersion(in.Version).WithPlatform(in.PlatformTag)
	}
	defer r.Close()

	if err := ExtractBundle(r, versionDir); err != nil {
		return "", pgberrors.NewInstallError("failed to extract bundle", err).
			WithVersion(in.Version).WithPlatform(in.PlatformTag)
	}

	if !in.Installed() {
		return "", pgberrors.NewInstallError(
			fmt.Sprintf("server binary missing at %s after extraction", in.ServerBinary()),
			pgberrors.ErrExtractionFailed,
		).WithVersion(in.Version)
	}

	FixExecBits(filepath.Join(versionDir, "bin"))
	FixExecBits(filepath.Join(versionDir, "lib"))

	log.Info("server bundle extracted", "dir", versionDir)
	return versionDir, nil
}
