package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	content := "dialect = \"jsx\"\npass_through = true\nmax_diagnostics = 25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Dialect != "jsx" || !m.PassThrough || m.MaxDiagnostics != 25 {
		t.Errorf("manifest = %+v", m)
	}
}

func TestLoadManifestUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte("bogus = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ManifestName), []byte("dialect = \"tsx\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Find(sub)
	if err != nil {
		t.Fatal(err)
	}
	if m.Dialect != "tsx" {
		t.Errorf("dialect = %q", m.Dialect)
	}
}

func TestFindDefault(t *testing.T) {
	m, err := Find(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if m.Dialect != "js" || m.PassThrough {
		t.Errorf("default = %+v", m)
	}
}
