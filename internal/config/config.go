// Package config reads plume.toml, the optional per-project settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const FileName = "plume.toml"

type Config struct {
	Debug Debug `toml:"debug"`
	VM    VM    `toml:"vm"`
	Log   Log   `toml:"log"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type Debug struct {
	PrintCode      bool `toml:"print-code"`
	TraceExecution bool `toml:"trace-execution"`
}

type VM struct {
	MaxFrames int   `toml:"max-frames"`
	MaxMemory int64 `toml:"max-memory"` // bytes, 0 is unlimited
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() *Config {
	return &Config{
		VM: VM{MaxFrames: 64},
	}
}

// Load parses the file at path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path = path
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(filepath.Dir(path), c.Log.File)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for plume.toml. Without one it
// returns the defaults.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if c.VM.MaxFrames < 1 || c.VM.MaxFrames > 1<<16 {
		return fmt.Errorf("vm.max-frames must be between 1 and 65536, got %d", c.VM.MaxFrames)
	}
	if c.VM.MaxMemory < 0 {
		return fmt.Errorf("vm.max-memory must not be negative, got %d", c.VM.MaxMemory)
	}
	if c.Log.Verbosity < -4 || c.Log.Verbosity > 5 {
		return fmt.Errorf("log.verbosity must be between -4 and 5, got %d", c.Log.Verbosity)
	}
	return nil
}
