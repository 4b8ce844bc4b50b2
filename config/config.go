// Package config holds on-disk defaults for the vexasm/vexrun CLI
// drivers. The core engine itself is config-free; this package exists
// purely so the drivers have somewhere to read/write user preferences,
// following the same config idiom as the rest of the CLI tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the defaults the vexasm/vexrun drivers fall back to
// when a flag isn't given explicitly.
type Config struct {
	// Runner defaults (cmd/vexrun).
	Runner struct {
		MemorySize uint32 `toml:"memory_size"`
		MaxTicks   uint64 `toml:"max_ticks"`
		DumpRegs   bool   `toml:"dump_registers"`
	} `toml:"runner"`

	// Assembler defaults (cmd/vexasm).
	Assembler struct {
		OutputExtension string `toml:"output_extension"`
		EmitSourceMap   bool   `toml:"emit_source_map"`
		DataOffset      uint32 `toml:"data_offset"`
	} `toml:"assembler"`
}

// DefaultConfig returns the built-in defaults used when no config file
// is present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Runner.MemorySize = 1024
	cfg.Runner.MaxTicks = 1_000_000
	cfg.Runner.DumpRegs = true

	cfg.Assembler.OutputExtension = ".vex"
	cfg.Assembler.EmitSourceMap = false
	cfg.Assembler.DataOffset = 0

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "vex")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "vex")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back
// to DefaultConfig() when it does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
