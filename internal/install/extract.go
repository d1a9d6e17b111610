package install

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/pgbox-dev/pgbox/internal/platform"
)

// ExtractBundle unpacks a gzip-compressed tar stream into destDir.
//
// Bundle archives nest their content one level below a version/platform
// root folder ("postgresql-17.2.0-aarch64-apple-darwin/bin/postgres"), so
// the leading path component of every entry is stripped before writing. An
// entry consisting only of the root folder produces nothing.
func ExtractBundle(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open compressed bundle: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read bundle entry: %w", err)
		}

		rel := StripRoot(hdr.Name)
		if rel == "" {
			continue
		}

		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("bundle entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dest, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return fmt.Errorf("failed to create parent of %s: %w", dest, err)
			}
			os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", dest, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, dest, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Hard links, devices and the like do not occur in server
			// bundles; skip rather than fail.
		}
	}
}

// StripRoot removes the leading path component of a slash-separated archive
// entry name. Returns "" for the bare root entry itself.
func StripRoot(name string) string {
	name = strings.Trim(name, "/")
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// writeEntry streams one regular file entry to disk. Re-running over an
// existing file truncates and rewrites it, keeping extraction idempotent
// per entry.
func writeEntry(r io.Reader, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", dest, err)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}

// extractFlat unpacks a gzip-compressed tar stream into destDir without
// stripping path components. Extension archives keep their internal layout;
// classification later finds the files wherever they landed.
func extractFlat(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open compressed archive: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}

		rel := strings.Trim(hdr.Name, "/")
		if rel == "" {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dest, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, dest, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

// FixExecBits marks every regular file directly under dir executable.
// Best-effort: one unfixable file must not abort the rest, and platforms
// without an executable-bit concept skip this entirely.
func FixExecBits(dir string) {
	if !platform.HasExecBits(runtime.GOOS) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		_ = os.Chmod(filepath.Join(dir, entry.Name()), 0755)
	}
}
