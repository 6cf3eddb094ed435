// Package config loads workspace settings from .tagsmith.toml. Flags take
// precedence over file values; the file just moves defaults per workspace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the workspace configuration file, looked up at the root.
const FileName = ".tagsmith.toml"

// Config mirrors the TOML document.
type Config struct {
	Output OutputConfig `toml:"output"`
	Fields FieldsConfig `toml:"fields"`
	Watch  WatchConfig  `toml:"watch"`
}

// OutputConfig selects the target file and serialization knobs.
type OutputConfig struct {
	// File is the tag file path; "-" writes to stdout.
	File string `toml:"file"`

	// Format is "ctags", "etags", or "xref".
	Format string `toml:"format"`

	// Sort is "no", "yes", or "foldcase".
	Sort string `toml:"sort"`

	// FileFormat is the ctags file format, 1 or 2.
	FileFormat int `toml:"file_format"`

	// Excmd is "pattern" or "number" addressing.
	Excmd string `toml:"excmd"`

	// PatternLengthLimit caps search patterns (0 = default).
	PatternLengthLimit int `toml:"pattern_length_limit"`

	// Encoding is recorded in the TAG_FILE_ENCODING pseudo-tag.
	Encoding string `toml:"encoding"`
}

// FieldsConfig adjusts which extension fields are written.
type FieldsConfig struct {
	Enable  []string `toml:"enable"`
	Disable []string `toml:"disable"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// Incremental keeps per-file fingerprints so unchanged files are
	// skipped on rebuild.
	Incremental bool `toml:"incremental"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			File:       "tags",
			Format:     "ctags",
			Sort:       "yes",
			FileFormat: 2,
			Excmd:      "pattern",
		},
	}
}

// Load reads root/.tagsmith.toml, returning defaults when the file is
// absent. A malformed file is an error, not a silent fallback.
func Load(root string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
