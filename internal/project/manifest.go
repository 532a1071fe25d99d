// Package project loads the optional memoc.toml options manifest.
package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up in the working directory and its
// ancestors.
const ManifestName = "memoc.toml"

// Manifest carries project-level compiler options.
type Manifest struct {
	// Dialect is the default file type when the CLI does not name one:
	// js, jsx, ts or tsx.
	Dialect string `toml:"dialect"`
	// PassThrough opts into returning the original source on unsupported
	// constructs instead of failing.
	PassThrough bool `toml:"pass_through"`
	// Cache enables the on-disk result cache.
	Cache bool `toml:"cache"`
	// MaxDiagnostics caps the diagnostics reported per file.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Default returns the manifest used when no file is present.
func Default() Manifest {
	return Manifest{
		Dialect:        "js",
		MaxDiagnostics: 100,
	}
}

// Load reads the manifest at path.
func Load(path string) (Manifest, error) {
	m := Default()
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return m, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return m, errors.New("unknown key in manifest: " + undecoded[0].String())
	}
	if m.Dialect == "" {
		m.Dialect = "js"
	}
	if m.MaxDiagnostics <= 0 {
		m.MaxDiagnostics = 100
	}
	return m, nil
}

// Find walks up from dir looking for a manifest; Default when none exists.
func Find(dir string) (Manifest, error) {
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Default(), err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
