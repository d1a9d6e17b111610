package install

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// tarEntry is one entry for buildBundle.
type tarEntry struct {
	name string
	body string
	dir  bool
}

// buildBundle produces a gzip-compressed tar archive in memory.
func buildBundle(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = 0644
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.name, err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body %s: %v", e.name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// serverBundle returns a minimal but structurally complete server bundle.
func serverBundle(t *testing.T) []byte {
	t.Helper()
	root := "postgresql-17.2.0-x86_64-unknown-linux-gnu"
	return buildBundle(t, []tarEntry{
		{name: root, dir: true},
		{name: root + "/bin", dir: true},
		{name: root + "/bin/postgres", body: "server"},
		{name: root + "/bin/psql", body: "shell"},
		{name: root + "/bin/initdb", body: "setup"},
		{name: root + "/lib/libpq.so", body: "lib"},
		{name: root + "/share/extension/plpgsql.control", body: "control"},
	})
}

func TestStripRoot(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"root/bin/server", "bin/server"},
		{"root/bin/", "bin"},
		{"root", ""},
		{"root/", ""},
		{"", ""},
		{"root/share/extension/x.sql", "share/extension/x.sql"},
	}

	for _, tt := range tests {
		if got := StripRoot(tt.name); got != tt.want {
			t.Errorf("StripRoot(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractBundle_StripsLeadingComponent(t *testing.T) {
	dest := t.TempDir()
	bundle := serverBundle(t)

	if err := ExtractBundle(bytes.NewReader(bundle), dest); err != nil {
		t.Fatalf("ExtractBundle failed: %v", err)
	}

	// "root/bin/postgres" lands at <dest>/bin/postgres.
	data, err := os.ReadFile(filepath.Join(dest, "bin", "postgres"))
	if err != nil {
		t.Fatalf("expected bin/postgres: %v", err)
	}
	if string(data) != "server" {
		t.Errorf("bin/postgres content = %q", data)
	}

	// The bare root entry produced nothing at the destination top level.
	if _, err := os.Stat(filepath.Join(dest, "postgresql-17.2.0-x86_64-unknown-linux-gnu")); !os.IsNotExist(err) {
		t.Error("bare root entry must not be materialized")
	}

	// Nested paths survive intact below the stripped root.
	if _, err := os.Stat(filepath.Join(dest, "share", "extension", "plpgsql.control")); err != nil {
		t.Errorf("nested entry missing: %v", err)
	}
}

func TestExtractBundle_CorruptArchive(t *testing.T) {
	dest := t.TempDir()

	err := ExtractBundle(bytes.NewReader([]byte("not a gzip stream")), dest)
	if err == nil {
		t.Fatal("corrupt archive should fail extraction")
	}
}

func TestExtractBundle_TruncatedArchiveLeavesPartialState(t *testing.T) {
	dest := t.TempDir()
	bundle := serverBundle(t)

	err := ExtractBundle(bytes.NewReader(bundle[:len(bundle)/2]), dest)
	if err == nil {
		t.Fatal("truncated archive should fail extraction")
	}

	// Partial state is acceptable; re-running over it must succeed.
	if err := ExtractBundle(bytes.NewReader(bundle), dest); err != nil {
		t.Fatalf("re-extraction over partial state failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "bin", "postgres")); err != nil {
		t.Errorf("re-extraction did not complete the tree: %v", err)
	}
}

func TestExtractBundle_RejectsEscapingEntries(t *testing.T) {
	dest := t.TempDir()
	bundle := buildBundle(t, []tarEntry{
		{name: "root/../../escape", body: "nope"},
	})

	if err := ExtractBundle(bytes.NewReader(bundle), dest); err == nil {
		t.Fatal("entries escaping the destination must be rejected")
	}
}

func TestFixExecBits(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "postgres")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(sub, "nested")
	if err := os.WriteFile(nested, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	FixExecBits(dir)

	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("direct file mode = %v, want 0755", info.Mode().Perm())
	}

	// Only files directly under dir are touched.
	info, err = os.Stat(nested)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() == 0755 {
		t.Error("nested files must not be modified")
	}

	// Missing directory is a no-op, not a panic.
	FixExecBits(filepath.Join(dir, "absent"))
}
