package install

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

func vectorSpec() ExtensionSpec {
	return ExtensionSpec{
		Name:        "vector",
		Description: "vector similarity search",
		Repo:        "pgvector/pgvector",
		Tag:         "v0.8.0",
	}
}

// vectorArchive builds a realistic pgvector artifact archive.
func vectorArchive(t *testing.T) []byte {
	t.Helper()
	return buildBundle(t, []tarEntry{
		{name: "pgvector/lib", dir: true},
		{name: "pgvector/lib/vector.so", body: "shared lib"},
		{name: "pgvector/share/extension/vector.control", body: "control"},
		{name: "pgvector/share/extension/vector--0.8.0.sql", body: "create"},
		{name: "pgvector/README.md", body: "docs"},
	})
}

// installRootWithVersion creates an installation root containing a bare
// version directory.
func installRootWithVersion(t *testing.T, version string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, version, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}

func fetchFromBytes(t *testing.T, data []byte, calls *int) func(url, dest string) error {
	return func(url, dest string) error {
		*calls++
		return os.WriteFile(dest, data, 0644)
	}
}

func TestExtensionInstaller_Install(t *testing.T) {
	root := installRootWithVersion(t, "17.2.0")
	calls := 0
	ei := &ExtensionInstaller{
		InstallRoot: root,
		PlatformTag: "x86_64-unknown-linux-gnu",
		Fetch:       fetchFromBytes(t, vectorArchive(t), &calls),
	}

	if err := ei.Install(vectorSpec(), "17"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	versionDir := filepath.Join(root, "17.2.0")
	for _, want := range []string{
		"lib/vector.so",
		"share/extension/vector.control",
		"share/extension/vector--0.8.0.sql",
	} {
		if _, err := os.Stat(filepath.Join(versionDir, filepath.FromSlash(want))); err != nil {
			t.Errorf("%s missing after install: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(versionDir, "README.md")); !os.IsNotExist(err) {
		t.Error("unclassified files must not be copied")
	}
}

func TestExtensionInstaller_AlreadyInstalledSkipsNetwork(t *testing.T) {
	root := installRootWithVersion(t, "17.2.0")
	extDir := filepath.Join(root, "17.2.0", "share", "extension")
	if err := os.MkdirAll(extDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(extDir, "vector.control"), []byte("control"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	ei := &ExtensionInstaller{
		InstallRoot: root,
		PlatformTag: "x86_64-unknown-linux-gnu",
		Fetch:       fetchFromBytes(t, nil, &calls),
	}

	if err := ei.Install(vectorSpec(), "17"); err != nil {
		t.Fatalf("already-installed should be success, got %v", err)
	}
	if calls != 0 {
		t.Errorf("fetch called %d times, want 0 when already installed", calls)
	}
}

func TestExtensionInstaller_MissingInstallation(t *testing.T) {
	ei := &ExtensionInstaller{
		InstallRoot: filepath.Join(t.TempDir(), "absent"),
		PlatformTag: "x86_64-unknown-linux-gnu",
	}

	err := ei.Install(vectorSpec(), "17")
	if !pgberrors.Is(err, pgberrors.ErrInstallationNotFound) {
		t.Errorf("expected ErrInstallationNotFound, got %v", err)
	}

	// A root that exists but holds no matching version fails the same way.
	ei.InstallRoot = installRootWithVersion(t, "16.4.0")
	err = ei.Install(vectorSpec(), "17")
	if !pgberrors.Is(err, pgberrors.ErrInstallationNotFound) {
		t.Errorf("expected ErrInstallationNotFound for version mismatch, got %v", err)
	}
}

func TestExtensionInstaller_DownloadFailure(t *testing.T) {
	root := installRootWithVersion(t, "17.2.0")
	ei := &ExtensionInstaller{
		InstallRoot: root,
		PlatformTag: "x86_64-unknown-linux-gnu",
		Fetch: func(url, dest string) error {
			return fmt.Errorf("connection refused")
		},
	}

	err := ei.Install(vectorSpec(), "17")
	if err == nil {
		t.Fatal("download failure must be fatal")
	}
	if !pgberrors.IsRetryable(err) {
		t.Error("download failures are transient and retryable")
	}
}

func TestExtensionInstaller_CorruptArchive(t *testing.T) {
	root := installRootWithVersion(t, "17.2.0")
	calls := 0
	ei := &ExtensionInstaller{
		InstallRoot: root,
		PlatformTag: "x86_64-unknown-linux-gnu",
		Fetch:       fetchFromBytes(t, []byte("not a tarball"), &calls),
	}

	err := ei.Install(vectorSpec(), "17")
	if err == nil {
		t.Fatal("corrupt archive must fail extraction")
	}
	if !pgberrors.IsRetryable(err) {
		t.Error("extraction failures are retryable")
	}
}
