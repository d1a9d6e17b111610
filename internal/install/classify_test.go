package install

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates the given relative files under a new temp root.
func writeTree(t *testing.T, files []string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestClassify(t *testing.T) {
	root := writeTree(t, []string{
		"lib/vector.so",
		"nested/deeper/vector.dylib",
		"vector.dll",
		"share/extension/vector.control",
		"share/extension/vector--0.8.0.sql",
		"share/extension/vector--0.7.0--0.8.0.sql",
		"README.md",
		"include/vector.h",
		"share/extension/other.control",
		"vector--notes.txt",
	})

	items, err := Classify(root, "vector")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	got := map[string]Category{}
	for _, item := range items {
		rel, err := filepath.Rel(root, item.Src)
		if err != nil {
			t.Fatal(err)
		}
		got[filepath.ToSlash(rel)] = item.Category
	}

	wantLib := []string{"lib/vector.so", "nested/deeper/vector.dylib", "vector.dll"}
	for _, f := range wantLib {
		if cat, ok := got[f]; !ok || cat != CategoryLib {
			t.Errorf("%s: want CategoryLib, got %v (present=%v)", f, cat, ok)
		}
	}

	wantExt := []string{
		"share/extension/vector.control",
		"share/extension/vector--0.8.0.sql",
		"share/extension/vector--0.7.0--0.8.0.sql",
	}
	for _, f := range wantExt {
		if cat, ok := got[f]; !ok || cat != CategoryExtension {
			t.Errorf("%s: want CategoryExtension, got %v (present=%v)", f, cat, ok)
		}
	}

	ignored := []string{"README.md", "include/vector.h", "share/extension/other.control", "vector--notes.txt"}
	for _, f := range ignored {
		if _, ok := got[f]; ok {
			t.Errorf("%s should be ignored", f)
		}
	}
}

func TestClassify_EmptyTree(t *testing.T) {
	items, err := Classify(t.TempDir(), "vector")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("empty tree should classify nothing, got %v", items)
	}
}

func TestFindExtension(t *testing.T) {
	catalog := Catalog(ExtensionSpec{
		Name:        "vector",
		Description: "vector similarity search",
		Repo:        "pgvector/pgvector",
		Tag:         "v0.8.0",
	})

	ext, err := FindExtension(catalog, "Vector")
	if err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
	if ext.Name != "vector" {
		t.Errorf("ext.Name = %q", ext.Name)
	}

	if _, err := FindExtension(catalog, "postgis"); err == nil {
		t.Error("unknown extension should fail lookup")
	}
}

func TestExtensionSpec_ArchiveURL(t *testing.T) {
	ext := ExtensionSpec{Name: "vector", Repo: "pgvector/pgvector", Tag: "v0.8.0"}
	got := ext.ArchiveURL("aarch64-apple-darwin", "17")
	want := "https://github.com/pgvector/pgvector/releases/download/v0.8.0/vector-aarch64-apple-darwin-pg17.tar.gz"
	if got != want {
		t.Errorf("ArchiveURL = %q, want %q", got, want)
	}
}
