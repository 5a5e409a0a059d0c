// Package config handles the optional material-updater.toml defaults file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"material-updater/internal/version"
)

// DefaultPath is looked up in the working directory when no -config flag is
// given.
const DefaultPath = "material-updater.toml"

// File holds defaults for command line flags. Pointer fields are nil when the
// key is absent.
type File struct {
	TargetVersion  *version.Target `toml:"target_version"`
	ZipCompression *int            `toml:"zip_compression"`
	SamplerLODFix  *bool           `toml:"sampler_lod_fix"`
	Verbosity      *int            `toml:"verbosity"`

	// Path is the file the values came from (set at load time).
	Path string `toml:"-"`
}

// Load parses the file at path. Unknown keys are an error so typos do not
// go unnoticed.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if f.ZipCompression != nil && (*f.ZipCompression < 0 || *f.ZipCompression > 9) {
		return nil, fmt.Errorf("%s: zip_compression must be between 0 and 9, got %d", path, *f.ZipCompression)
	}
	f.Path = path
	return &f, nil
}

// LoadDefault loads DefaultPath if it exists and returns nil, nil otherwise.
func LoadDefault() (*File, error) {
	if _, err := os.Stat(DefaultPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return Load(DefaultPath)
}
