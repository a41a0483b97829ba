// Package configfile implements the ".minimap" discovery file: a minimal
// TOML table naming the remote URL and backend type a CLI-style front end
// should open a workspace against.
//
// Grounded on steveyegge-beads' internal/configfile/configfile.go for shape
// and error-wrapping style, using github.com/BurntSushi/toml in place of
// beads' encoding/json since this is the one ambient format in this module
// that is genuinely a config *file* (TOML, matching the teacher's own
// stated format for it) rather than a wire record.
package configfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// BackendType enumerates supported backend kinds. "git" is the only value
// the core module understands.
type BackendType string

const BackendGit BackendType = "git"

// FileName is the name searched for from the current directory upward.
const FileName = ".minimap"

// Config is the parsed shape of a .minimap file.
type Config struct {
	Remote string      `toml:"remote"`
	Type   BackendType `toml:"type"`
}

// Load parses path as a .minimap file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remote == "" {
		return nil, fmt.Errorf("%s: missing required field \"remote\"", path)
	}
	if cfg.Type != BackendGit {
		return nil, fmt.Errorf("%s: unsupported backend type %q", path, cfg.Type)
	}
	return &cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Discover walks upward from startDir looking for a .minimap file, stopping
// at the filesystem root. It returns the full path to the first one found.
func Discover(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found above %s", FileName, startDir)
		}
		dir = parent
	}
}
