package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/logging"
)

// ExtensionSpec describes one installable extension in the catalog.
type ExtensionSpec struct {
	// Name is the extension's PostgreSQL name ("vector").
	Name string
	// Description is shown by list-extensions.
	Description string
	// Repo is the GitHub repository hosting compiled release artifacts.
	Repo string
	// Tag is the release tag the artifacts are published under.
	Tag string
}

// ArchiveURL builds the release URL of the compiled artifact for a platform
// tag and server major version.
func (e *ExtensionSpec) ArchiveURL(platformTag, pgMajor string) string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s-%s-pg%s.tar.gz",
		e.Repo, e.Tag, e.Name, platformTag, pgMajor)
}

// Catalog returns the extensions pgbox knows how to install. The vector
// entry's artifact coordinates come from configuration; further entries are
// fixed.
func Catalog(vector ExtensionSpec) []ExtensionSpec {
	return []ExtensionSpec{
		vector,
	}
}

// FindExtension looks an extension up by name, case-insensitively.
// Returns errors.ErrExtensionNotFound for unknown names.
func FindExtension(catalog []ExtensionSpec, name string) (ExtensionSpec, error) {
	for _, ext := range catalog {
		if strings.EqualFold(ext.Name, name) {
			return ext, nil
		}
	}
	return ExtensionSpec{}, fmt.Errorf("%w: %q", pgberrors.ErrExtensionNotFound, name)
}

// ExtensionInstaller copies an extension's shared library and catalog files
// into an existing installation. It never creates installations, only
// augments them.
type ExtensionInstaller struct {
	// InstallRoot is the shared installation directory to augment.
	InstallRoot string
	// PlatformTag selects the compiled artifact.
	PlatformTag string
	// Fetch downloads a URL into the given file path. Defaults to a
	// retrying HTTP download; replaceable in tests.
	Fetch func(url, dest string) error
	// Log receives diagnostics. Defaults to a no-op logger.
	Log *logging.Logger
}

// Install ensures ext's files are present in the installation matching
// pgMajor. Success when the extension is already installed; fatal and
// distinct errors for a missing installation, a failed download, and a
// failed extraction.
func (ei *ExtensionInstaller) Install(ext ExtensionSpec, pgMajor string) error {
	log := ei.Log
	if log == nil {
		log = logging.NopLogger()
	}

	versionDir, err := findVersionDir(ei.InstallRoot, pgMajor)
	if err != nil {
		return err
	}

	libDir := filepath.Join(versionDir, "lib")
	extDir := filepath.Join(versionDir, "share", "extension")

	// Already installed: success, checked before any network work.
	if _, err := os.Stat(filepath.Join(extDir, ext.Name+".control")); err == nil {
		log.Debug("extension already installed", "extension", ext.Name)
		return nil
	}

	tempDir, err := os.MkdirTemp("", "pgbox-"+ext.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	// Best-effort cleanup, success or failure.
	defer os.RemoveAll(tempDir)

	url := ext.ArchiveURL(ei.PlatformTag, pgMajor)
	archivePath := filepath.Join(tempDir, ext.Name+".tar.gz")
	log.Info("downloading extension", "extension", ext.Name, "url", url)

	fetch := ei.Fetch
	if fetch == nil {
		fetch = fetchToFile
	}
	if err := fetch(url, archivePath); err != nil {
		return pgberrors.NewInstallError("failed to download extension", err).WithPlatform(ei.PlatformTag)
	}

	extractDir := filepath.Join(tempDir, "extracted")
	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open downloaded archive: %w", err)
	}
	err = extractFlat(archive, extractDir)
	archive.Close()
	if err != nil {
		return pgberrors.NewInstallError("failed to extract extension archive", err)
	}

	items, err := Classify(extractDir, ext.Name)
	if err != nil {
		return fmt.Errorf("failed to classify extension files: %w", err)
	}

	if err := os.MkdirAll(libDir, 0755); err != nil {
		return fmt.Errorf("failed to create lib directory: %w", err)
	}
	if err := os.MkdirAll(extDir, 0755); err != nil {
		return fmt.Errorf("failed to create extension directory: %w", err)
	}

	for _, item := range items {
		destDir := libDir
		if item.Category == CategoryExtension {
			destDir = extDir
		}
		if err := copyFile(item.Src, filepath.Join(destDir, filepath.Base(item.Src))); err != nil {
			return fmt.Errorf("failed to install %s: %w", filepath.Base(item.Src), err)
		}
	}

	log.Info("extension installed", "extension", ext.Name, "files", len(items))
	return nil
}

// findVersionDir scans the installation root for the version directory whose
// name starts with the target major-version digits.
func findVersionDir(installRoot, pgMajor string) (string, error) {
	entries, err := os.ReadDir(installRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", pgberrors.ErrInstallationNotFound
		}
		return "", fmt.Errorf("failed to read installation root: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), pgMajor) {
			return filepath.Join(installRoot, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: no version %s.x under %s", pgberrors.ErrInstallationNotFound, pgMajor, installRoot)
}

// copyFile copies src to dest, truncating any existing file.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
