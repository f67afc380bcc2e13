// Package config loads rpmbuilder's project-level configuration file: the
// default macros search path, default payload compressor, default
// build-root location, and signer selection. This is ambient configuration,
// never part of a package recipe (that's the spec-file parser's job).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Project is the decoded form of rpmbuilder.toml.
type Project struct {
	MacrosPath      string `toml:"macros_path"`
	BuildRoot       string `toml:"build_root"`
	PayloadCompress string `toml:"payload_compressor"`
	SignerKeyID     string `toml:"signer_key_id"`
	Quiet           bool   `toml:"quiet"`
	Verbose         bool   `toml:"verbose"`
}

// Default returns a Project populated with rpmbuilder's built-in defaults,
// used when no rpmbuilder.toml is present.
func Default() Project {
	return Project{
		MacrosPath:      "/usr/lib/rpm/macros",
		BuildRoot:       "/var/tmp/rpmbuilder-root",
		PayloadCompress: "gzip",
	}
}

// Load reads and decodes path, a TOML project configuration file.
// Unset fields in the file retain Default()'s values.
func Load(path string) (Project, error) {
	p := Default()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Project{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, nil
}

// LoadOrDefault behaves like Load, but returns Default() unmodified when
// path does not exist rather than treating a missing project config as an
// error.
func LoadOrDefault(path string) (Project, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
