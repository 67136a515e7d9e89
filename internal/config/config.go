// Package config loads pyscope.toml, the per-project configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Find.
const FileName = "pyscope.toml"

// ErrNotFound is returned by Find when no configuration file exists in the
// start directory or any of its parents.
var ErrNotFound = errors.New("config: no " + FileName + " found")

// Color modes accepted by [output].color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Output formats accepted by [output].format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the decoded contents of pyscope.toml.
type Config struct {
	// Path of the file the config was read from. Empty for Default().
	Path string `toml:"-"`

	Index  IndexConfig  `toml:"index"`
	Output OutputConfig `toml:"output"`
}

type IndexConfig struct {
	Database    string   `toml:"database"`
	Exclude     []string `toml:"exclude"`
	Jobs        int      `toml:"jobs"`
	MaxFileSize int64    `toml:"max_file_size"`
}

type OutputConfig struct {
	Color  string `toml:"color"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Index: IndexConfig{
			Database:    filepath.Join(".pyscope", "index.db"),
			MaxFileSize: 1_000_000,
		},
		Output: OutputConfig{
			Color:  ColorAuto,
			Format: FormatText,
		},
	}
}

// Root returns the directory containing the config file, or "." for the
// default configuration.
func (c Config) Root() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// DatabasePath resolves [index].database against the config directory.
func (c Config) DatabasePath() string {
	if filepath.IsAbs(c.Index.Database) {
		return c.Index.Database
	}
	return filepath.Join(c.Root(), c.Index.Database)
}

// Find walks up from startDir looking for pyscope.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %q: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load reads and validates the file at path. Keys left out keep their
// Default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the nearest pyscope.toml above startDir. When
// there is none it returns Default() and no error.
func Discover(startDir string) (Config, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Load(path)
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Index.Database) == "" {
		return errors.New("[index].database must not be empty")
	}
	if c.Index.Jobs < 0 {
		return fmt.Errorf("[index].jobs must be >= 0, got %d", c.Index.Jobs)
	}
	if c.Index.MaxFileSize < 0 {
		return fmt.Errorf("[index].max_file_size must be >= 0, got %d", c.Index.MaxFileSize)
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("[output].color must be auto, always or never, got %q", c.Output.Color)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("[output].format must be text or json, got %q", c.Output.Format)
	}
	return nil
}
